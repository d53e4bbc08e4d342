package customers

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	organizationRegister = regexp.MustCompile(`^\d{7}$`)
	citizenRegister      = regexp.MustCompile(`^[А-ЯЁӨҮа-яёөү]{2}\d{8}$`)
)

// ValidOrganizationRegister reports whether s is a 7-digit organization register.
func ValidOrganizationRegister(s string) bool {
	return organizationRegister.MatchString(s)
}

// ValidCitizenRegister reports whether s is two Cyrillic letters followed by 8 digits.
func ValidCitizenRegister(s string) bool {
	return citizenRegister.MatchString(s)
}

// ValidRegister checks s against the format of kind. s must already be trimmed.
func ValidRegister(kind LookupKind, s string) bool {
	if kind == LookupDirector {
		return ValidCitizenRegister(s)
	}
	return ValidOrganizationRegister(s)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("orgregno", func(fl validator.FieldLevel) bool {
		return ValidOrganizationRegister(fl.Field().String())
	})
	_ = v.RegisterValidation("citizenregno", func(fl validator.FieldLevel) bool {
		return ValidCitizenRegister(fl.Field().String())
	})
	return v
}

// Localised validation messages keyed by field or field.tag.
var formMessages = map[string]string{
	"CustomerID.required":           "Доод тал нь 7 тэмдэгт байх ёстой",
	"CustomerID.min":                "Доод тал нь 7 тэмдэгт байх ёстой",
	"CustomerID.orgregno":           "Регистрийн дугаарын формат буруу байна.",
	"CustomerName":                  "Байгууллагын нэр шаардлагатай",
	"TinCode":                       "Байгууллагын ТИН дугаар шаардлагатай",
	"Phone":                         "Утасны дугаар оруулна уу.",
	"ContractAmount":                "0-ээс их байх ёстой",
	"ContractEndDate":               "Гэрээний дуусах хугацаа оруулна уу.",
	"BusinessClassOid":              "Бизнес ангилал сонгоно уу.",
	"RegionID":                      "Аймаг/Хот сонгоно уу",
	"DrFirstname":                   "Захирлын нэр оруулна уу.",
	"DrLastname":                    "Захирлын овог оруулна уу.",
	"DirectorRegister.required":     "Доод тал нь 10 тэмдэгт байх ёстой",
	"DirectorRegister.min":          "Доод тал нь 10 тэмдэгт байх ёстой",
	"DirectorRegister.citizenregno": "Регистрийн дугаарын формат буруу байна.",
	"UserName":                      "Апп хэрэглэгчийн нэр оруулна уу.",
	"ContractPeriodType":            "Гэрээний давтамж сонгоно уу.",
	"TaxUsername":                   "Нэвтрэх нэр оруулна уу.",
	"InsuranceLoginID":              "Нэвтрэх нэр оруулна уу.",
	"Password":                      "Нууц үг оруулна уу.",
}

// User-facing messages.
const (
	MsgRegisterRequired   = "Регистрийн дугаар оруулна уу."
	MsgRegisterExists     = "Энэ регистрийн дугаар бүртгэлтэй байна."
	MsgOrgRegisterInvalid = "Байгууллагын регистр буруу байна."
	MsgRegisterFormat     = "Регистрийн дугаарын формат буруу байна."
	MsgOrgFetched         = "Байгууллагын мэдээлэл амжилттай татагдлаа."
	MsgOrgFetchFailed     = "Байгууллагын мэдээлэл татахад алдаа гарлаа."
	MsgDirectorFetched    = "Захирлын мэдээлэл амжилттай татагдлаа."
	MsgDirectorFetchFail  = "Захирлын мэдээлэл татахад алдаа гарлаа."
	MsgLookupStale        = "Регистрийн дугаараар мэдээллээ дахин татна уу."
	MsgCreated            = "Байгууллага амжилттай үүслээ"
	MsgCreateFailed       = "Байгууллага үүсгэх үед алдаа гарлаа"
	MsgTaxSaved           = "Татварын эрх амжилттай хадгалагдлаа"
	MsgTaxFailed          = "Татварын эрх хадгалах үед алдаа гарлаа"
	MsgInsuranceSaved     = "Нийгмийн даатгалын эрх амжилттай хадгалагдлаа"
	MsgInsuranceFailed    = "Нийгмийн даатгалын эрх хадгалах үед алдаа гарлаа"
	MsgListUnavailable    = "Харилцагчдын жагсаалт татахад алдаа гарлаа"
	MsgEmployeesNotLinked = "Тохиргоо хэсгээс нийгмийн даатгалын эрхээ холбосны дараа ажилчдын мэдээлэл татах боломжтой."
	MsgEmployeesEmpty     = "Ажилчдын мэдээлэл олдсонгүй"
	MsgCustomerNotFound   = "Харилцагч олдсонгүй"
	MsgFormInvalid        = "Маягтын алдааг засна уу"
)
