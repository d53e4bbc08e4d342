// Package balances manages opening balances per customer, year and account.
package balances

// Account is a chart-of-accounts entry.
type Account struct {
	Oid  string `json:"Oid"`
	Code string `json:"Code"`
	Name string `json:"Name"`
}

// Label renders "code - name".
func (a Account) Label() string {
	if a.Code == "" {
		return a.Name
	}
	return a.Code + " - " + a.Name
}

// AccountBalance is the parent record of one customer's year.
type AccountBalance struct {
	Oid           string   `json:"Oid"`
	CustomerOid   string   `json:"CustomerOid"`
	YearType      int      `json:"YearType"`
	ActiveAmount  *float64 `json:"ActiveAmount"`
	PassiveAmount *float64 `json:"PassiveAmount"`
	CustomerName  string   `json:"CustomerName"`
	CustomerPin   string   `json:"CustomerPin"`
}

// Item is one account line of a balance.
type Item struct {
	Oid                     string   `json:"Oid,omitempty"`
	AccountPeriodBalanceOid string   `json:"AccountPeriodBalanceOid"`
	AccountOid              string   `json:"AccountOid" validate:"required"`
	ActiveAmount            *float64 `json:"ActiveAmount"`
	PassiveAmount           *float64 `json:"PassiveAmount"`
	BusinessCustomerOid     *string  `json:"BusinessCustomerOid"`
}

// CreateRequest creates a balance together with its items.
type CreateRequest struct {
	YearType    int    `json:"YearType" validate:"min=2000"`
	CustomerOid string `json:"CustomerOid" validate:"required"`
	Items       []Item `json:"items" validate:"min=1,dive"`
}

// UpdateRequest upserts the items of an existing balance.
type UpdateRequest struct {
	AccountPeriodBalanceOid string `json:"AccountPeriodBalanceOid"`
	Items                   []Item `json:"items" validate:"min=1,dive"`
}

// Result reports the outcome of a batch action. FailedRows are 1-based.
type Result struct {
	Success                 bool   `json:"success"`
	Message                 string `json:"message,omitempty"`
	Error                   string `json:"error,omitempty"`
	FailedRows              []int  `json:"failedRows,omitempty"`
	AccountPeriodBalanceOid string `json:"accountPeriodBalanceOid,omitempty"`
}

// Messages shown to the user.
const (
	MsgCreated        = "Эхний үлдэгдэл амжилттай үүсгэлээ"
	MsgUpdated        = "Бүх мэдээлэл амжилттай хадгалагдлаа"
	MsgParentFailed   = "AccountPeriodBalance үүсгэхэд алдаа гарлаа"
	MsgParentRequired = "AccountPeriodBalance заавал шаардлагатай"
	MsgCreateFailed   = "Мэдээлэл үүсгэхэд алдаа гарлаа"
	MsgUpdateFailed   = "Мэдээлэл хадгалахад алдаа гарлаа"
	MsgListFailed     = "Эхний үлдэгдлийн мэдээлэл татахад алдаа гарлаа"
	MsgNotFound       = "Эхний үлдэгдэл олдсонгүй"
	MsgFormInvalid    = "Маягтын алдааг засна уу"
	rowsFailedSuffix  = " мөр дээр алдаа гарлаа"
)

// fieldMessages localises validation failures.
var fieldMessages = map[string]string{
	"YearType":    "Жил сонгоно уу",
	"CustomerOid": "Харилцагч сонгоно уу",
	"Items.min":   "Хамгийн багадаа 1 мөр оруулна уу",
	"AccountOid":  "Данс сонгоно уу",
}

// Totals sums the item amounts; nil amounts count as zero.
func Totals(items []Item) (active, passive float64) {
	for _, it := range items {
		if it.ActiveAmount != nil {
			active += *it.ActiveAmount
		}
		if it.PassiveAmount != nil {
			passive += *it.PassiveAmount
		}
	}
	return active, passive
}
