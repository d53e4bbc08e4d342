package customers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

type stubReply struct {
	body string
	err  error
}

type recordedPost struct {
	path  string
	token string
	body  []byte
}

// stubBackend answers GETs by path (plus encoded query) and records POSTs.
type stubBackend struct {
	mu      sync.Mutex
	gets    map[string]stubReply
	getLog  []string
	posts   []recordedPost
	postErr error
}

func newStubBackend() *stubBackend {
	return &stubBackend{gets: map[string]stubReply{}}
}

func (s *stubBackend) Get(_ context.Context, path, _ string, query url.Values) (*backend.Response, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLog = append(s.getLog, key)
	reply, ok := s.gets[key]
	if !ok {
		return nil, &backend.Error{Status: http.StatusNotFound, Message: "Not Found"}
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &backend.Response{Status: http.StatusOK, Body: []byte(reply.body)}, nil
}

func (s *stubBackend) Post(_ context.Context, path, token string, body any) (*backend.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, recordedPost{path: path, token: token, body: raw})
	if s.postErr != nil {
		return nil, s.postErr
	}
	return &backend.Response{Status: http.StatusOK, Body: []byte(`{"success":true}`)}, nil
}

func newTestService(b *stubBackend) *Service {
	svc := NewService(b, nil)
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
	return svc
}

func validForm() Form {
	f := NewForm()
	f.CustomerID = "1234567"
	f.CustomerName = "Алтан ХХК"
	f.TinCode = "123456789"
	f.Phone = "99112233"
	f.ContractAmount = 150000
	f.ContractEndDate = "2026-12-31"
	f.BusinessClassOid = "bc-1"
	f.RegionID = "r1"
	f.DrFirstname = "Бат"
	f.DrLastname = "Дорж"
	f.DirectorRegister = "УБ12345678"
	f.UserName = "1234567"
	return f
}

func TestRegisterFormats(t *testing.T) {
	assert.True(t, ValidOrganizationRegister("1234567"))
	assert.False(t, ValidOrganizationRegister("123456"))
	assert.False(t, ValidOrganizationRegister("12345678"))
	assert.False(t, ValidOrganizationRegister(""))
	assert.False(t, ValidOrganizationRegister(" 1234567 "))

	assert.True(t, ValidCitizenRegister("УБ12345678"))
	assert.True(t, ValidCitizenRegister("өү12345678"))
	assert.False(t, ValidCitizenRegister("UB12345678"))
	assert.False(t, ValidCitizenRegister("УБ1234567"))
	assert.False(t, ValidCitizenRegister(""))
	assert.False(t, ValidCitizenRegister("УБ12345678 "))

	assert.True(t, ValidRegister(LookupDirector, "ЁЮ00000001"))
	assert.False(t, ValidRegister(LookupOrganization, "ЁЮ00000001"))
}

func TestLookupExistingRegisterSkipsRegistry(t *testing.T) {
	b := newStubBackend()
	b.gets[CheckRegisterPath+"1234567"] = stubReply{body: `{"exists":true,"customerOid":"c-1","isActive":true,"customerData":{"CustomerName":"Алтан"}}`}
	svc := newTestService(b)

	res, err := svc.Lookup(context.Background(), "tok", " 1234567 ")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, "c-1", res.CustomerOid)
	require.NotNil(t, res.IsActive)
	assert.True(t, *res.IsActive)
	assert.Equal(t, []string{CheckRegisterPath + "1234567"}, b.getLog)
}

func TestLookupFallsBackToRegistry(t *testing.T) {
	b := newStubBackend()
	b.gets[CheckRegisterPath+"1234567"] = stubReply{body: `{"exists":false}`}
	b.gets[CheckEbarimtPath+"?regno=1234567"] = stubReply{body: `{"tin":123456789,"data":{"name":"Алтан ХХК","vatPayer":true,"cityPayer":false,"directorLastName":"Бат","directorName":"Дорж"},"success":true}`}
	svc := newTestService(b)

	res, err := svc.Lookup(context.Background(), "tok", "1234567")
	require.NoError(t, err)
	assert.False(t, res.Exists)
	assert.Equal(t, "123456789", string(res.Tin))
	require.NotNil(t, res.Data)
	assert.Equal(t, "Алтан ХХК", res.Data.Name)
	assert.True(t, res.Data.VatPayer)
}

func TestLookupRejectsRegistryReplyWithoutData(t *testing.T) {
	b := newStubBackend()
	b.gets[CheckEbarimtPath+"?regno=1234567"] = stubReply{body: `{"tin":"1"}`}
	svc := newTestService(b)

	_, err := svc.Lookup(context.Background(), "tok", "1234567")
	assert.ErrorIs(t, err, backend.ErrInvalidPayload)
}

func TestLookupErrors(t *testing.T) {
	svc := newTestService(newStubBackend())
	_, err := svc.Lookup(context.Background(), "tok", "  ")
	assert.ErrorIs(t, err, shared.ErrValidation)

	b := newStubBackend()
	b.gets[CheckEbarimtPath+"?regno=1234567"] = stubReply{err: &backend.Error{Status: http.StatusBadGateway, Message: "registry down"}}
	_, err = newTestService(b).Lookup(context.Background(), "tok", "1234567")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, backend.StatusOf(err))
	assert.Equal(t, "registry down", backend.MessageOf(err, ""))
}

func TestApplyLookupOrganization(t *testing.T) {
	f := NewForm()
	f.CustomerID = "1234567"
	state, msg := ApplyLookup(&f, LookupOrganization, "1234567", &LookupResult{
		Tin:  "123456789",
		Data: &Taxpayer{Name: "Алтан ХХК", VatPayer: true, CityPayer: true},
	})
	assert.Equal(t, LookupFilled, state)
	assert.Empty(t, msg)
	assert.Equal(t, "Алтан ХХК", f.CustomerName)
	assert.Equal(t, "Алтан ХХК", f.UserName)
	assert.Equal(t, "123456789", f.TinCode)
	assert.True(t, f.IsVatPayer)
	assert.True(t, f.IsCityPayer)
	assert.Equal(t, "1234567", f.OrgLookupRegister)

	state, msg = ApplyLookup(&f, LookupOrganization, "1234567", &LookupResult{Exists: true, CustomerOid: "c-1"})
	assert.Equal(t, LookupExists, state)
	assert.Equal(t, MsgRegisterExists, msg)
	assert.Empty(t, f.CustomerName)
	assert.False(t, f.IsVatPayer)
	assert.Empty(t, f.OrgLookupRegister)
}

func TestApplyLookupDirector(t *testing.T) {
	f := NewForm()
	state, _ := ApplyLookup(&f, LookupDirector, "УБ12345678", &LookupResult{
		Data: &Taxpayer{DirectorLastName: "Бат", DirectorName: "Дорж"},
	})
	assert.Equal(t, LookupFilled, state)
	assert.Equal(t, "Бат", f.DrFirstname)
	assert.Equal(t, "Дорж", f.DrLastname)

	state, _ = ApplyLookup(&f, LookupDirector, "УБ12345678", &LookupResult{Exists: true})
	assert.Equal(t, LookupExists, state)
	assert.Empty(t, f.DrFirstname)
	assert.Equal(t, "УБ12345678", f.DirectorLookupRegister)
}

func TestValidateFormMessages(t *testing.T) {
	svc := newTestService(newStubBackend())
	assert.Nil(t, svc.ValidateForm(validForm()))

	f := validForm()
	f.CustomerID = "12AB"
	f.ContractAmount = 0
	f.DirectorRegister = "AB12345678"
	f.ContractPeriodType = "долоо хоног"
	fields := svc.ValidateForm(f)
	assert.Equal(t, "Доод тал нь 7 тэмдэгт байх ёстой", fields["CustomerID"])
	assert.Equal(t, "0-ээс их байх ёстой", fields["ContractAmount"])
	assert.Equal(t, "Регистрийн дугаарын формат буруу байна.", fields["DirectorRegister"])
	assert.Equal(t, "Гэрээний давтамж сонгоно уу.", fields["ContractPeriodType"])
}

func TestValidateFormRejectsStaleLookup(t *testing.T) {
	svc := newTestService(newStubBackend())
	f := validForm()
	f.OrgLookupRegister = "7654321"
	f.DirectorLookupRegister = f.DirectorRegister

	fields := svc.ValidateForm(f)
	assert.Equal(t, map[string]string{"CustomerID": MsgLookupStale}, fields)

	f.OrgLookupRegister = f.CustomerID
	assert.Nil(t, svc.ValidateForm(f))
}

func TestCreatePostsPayloadWithDefaults(t *testing.T) {
	b := newStubBackend()
	svc := newTestService(b)
	f := validForm()
	f.IsVatPayer = true

	oid, err := svc.Create(context.Background(), "tok", f)
	require.NoError(t, err)
	assert.Equal(t, "id-1", oid)

	require.Len(t, b.posts, 1)
	post := b.posts[0]
	assert.Equal(t, SaveAllPath, post.path)
	assert.Equal(t, "tok", post.token)

	var body map[string]any
	require.NoError(t, json.Unmarshal(post.body, &body))
	assert.Equal(t, "id-1", body["CustomerOid"])
	assert.Equal(t, "id-2", body["UserOid"])
	assert.Equal(t, DefaultPasswordHash, body["PasswordHash"])
	assert.Equal(t, CustomerRoleOid, body["RoleOid"])
	assert.Equal(t, CustomerRoleType, body["RoleType"])
	assert.Equal(t, false, body["IsCitizen"])
	assert.Equal(t, "", body["BankAccountnum"])
	assert.Equal(t, "System", body["AccountantFirstname"])
	assert.Equal(t, "Accountant", body["AccountantLastname"])
	assert.Equal(t, "SYS001", body["AccountantUserName"])
	assert.Equal(t, "system@novaq.com", body["AccountantEmail"])
	assert.Equal(t, "99999999", body["AccountantPhone"])
	assert.Equal(t, true, body["IsCertified"])
	assert.Equal(t, true, body["IsAccountantActive"])
	assert.Equal(t, true, body["IsVatPayer"])
	assert.Equal(t, false, body["IsCityPayer"])
	assert.Equal(t, "Бат", body["FirstName"])
	assert.Equal(t, "r1", body["RegionId"])
	assert.NotContains(t, body, "OrgLookupRegister")
}

func TestCreateDoesNotPostInvalidForm(t *testing.T) {
	b := newStubBackend()
	svc := newTestService(b)
	f := validForm()
	f.Phone = ""

	_, err := svc.Create(context.Background(), "tok", f)
	var ve *shared.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Утасны дугаар оруулна уу.", ve.Fields["Phone"])
	assert.Empty(t, b.posts)
}

func TestFormFromValuesParsesBooleans(t *testing.T) {
	f := FormFromValues(url.Values{
		"CustomerID":     {" 1234567 "},
		"IsVatPayer":     {"false"},
		"IsCityPayer":    {"true"},
		"Active":         {"on"},
		"ContractAmount": {"1,500,000"},
		"RegionId":       {"r1"},
	})
	assert.Equal(t, "1234567", f.CustomerID)
	assert.False(t, f.IsVatPayer)
	assert.True(t, f.IsCityPayer)
	assert.True(t, f.Active)
	assert.Equal(t, 1500000.0, f.ContractAmount)
	assert.Equal(t, "r1", f.RegionID)
	assert.Nil(t, f.IsAccountantActive)
}

func TestDetail(t *testing.T) {
	b := newStubBackend()
	b.gets[CustomerByRegisterPath+"1234567"] = stubReply{body: `{"data":{"Oid":"c-1","CustomerID":"1234567","CustomerName":"Алтан ХХК","InsuranceLoginId":"nd-1","Employees":[{"Code":"E1","LastName":"Бат","Name":"Дорж","TIN":123}]}}`}
	b.gets[CustomerByRegisterPath+"7654321"] = stubReply{body: `{}`}
	svc := newTestService(b)

	detail, err := svc.Detail(context.Background(), "tok", "1234567")
	require.NoError(t, err)
	assert.Equal(t, "Алтан ХХК", detail.CustomerName)
	assert.True(t, detail.InsuranceLinked())
	assert.False(t, detail.TaxLinked())
	require.Len(t, detail.Employees, 1)
	assert.Equal(t, "123", string(detail.Employees[0].TIN))

	_, err = svc.Detail(context.Background(), "tok", "0000000")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Detail(context.Background(), "tok", "7654321")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSaveAccessValidatesBeforePosting(t *testing.T) {
	b := newStubBackend()
	svc := newTestService(b)

	err := svc.SaveTaxAccess(context.Background(), "tok", TaxAccess{CustomerOid: "c-1", TaxUsername: "user"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, b.posts)

	require.NoError(t, svc.SaveInsuranceAccess(context.Background(), "tok", InsuranceAccess{CustomerOid: "c-1", InsuranceLoginID: "nd", Password: "secret"}))
	require.Len(t, b.posts, 1)
	assert.Equal(t, InsuranceAccessPath, b.posts[0].path)
	assert.JSONEq(t, `{"CustomerOid":"c-1","InsuranceLoginId":"nd","Password":"secret"}`, string(b.posts[0].body))
}
