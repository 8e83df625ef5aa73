package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/app"
	"freightdesk/internal/config"
	"freightdesk/internal/model"
)

const (
	adminEmail    = "admin@freightdesk.local"
	adminPassword = "admin-pass-1"
)

type harness struct {
	t        *testing.T
	apiURL   string
	stateDir string
}

type result struct {
	stdout string
	stderr string
	code   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{
		ServerPort:         "0",
		ServerWriteTimeout: 30 * time.Second,
		RequestTimeout:     5 * time.Second,
		LogLevel:           "error",
		DocumentRoot:       t.TempDir(),
		MaxUploadSize:      1 << 20,
		JWTSecret:          "console-secret",
		JWTTTL:             time.Hour,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       -1,
		AuthRateLimitRPM:   -1,
		MaxPageSize:        100,
		AdminEmail:         adminEmail,
		AdminPassword:      adminPassword,
		AuditLogFile:       filepath.Join(t.TempDir(), "audit.log"),
	}

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	return &harness{t: t, apiURL: srv.URL + "/api/v1", stateDir: t.TempDir()}
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()

	var stdout, stderr bytes.Buffer
	full := append([]string{"--api-url", h.apiURL, "--state-dir", h.stateDir, "--log-level", "error"}, args...)
	code := Execute(context.Background(), Streams{In: strings.NewReader(stdin), Out: &stdout, Err: &stderr}, full)

	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func (h *harness) mustRun(stdin string, args ...string) result {
	h.t.Helper()

	res := h.run(stdin, args...)
	require.Equal(h.t, 0, res.code, "stdout: %s\nstderr: %s", res.stdout, res.stderr)
	return res
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("", "login", "-e", adminEmail, "-p", adminPassword)
}

// jsonTail decodes the JSON document printed after any toast lines.
func jsonTail(t *testing.T, out string, v any) {
	t.Helper()

	start := strings.IndexAny(out, "{[")
	require.GreaterOrEqual(t, start, 0, "no JSON in %q", out)
	require.NoError(t, json.Unmarshal([]byte(out[start:]), v))
}

func (h *harness) create(collection string, sets ...string) model.Record {
	h.t.Helper()

	args := []string{"create", collection, "-o", "json"}
	for _, s := range sets {
		args = append(args, "--set", s)
	}
	res := h.mustRun("", args...)

	var rec model.Record
	jsonTail(h.t, res.stdout, &rec)
	require.NotEmpty(h.t, rec.ID())
	return rec
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not signed in")

	res = h.run("", "login", "-e", adminEmail, "-p", "wrong-password")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Invalid email or password")

	res = h.mustRun(adminEmail+"\n"+adminPassword+"\n", "login")
	assert.Contains(t, res.stdout, "Signed in as System Administrator")
	assert.FileExists(t, filepath.Join(h.stateDir, "session.json"))

	h.create(model.CollectionRoles, "name=admin", `permissions=["*"]`)

	res = h.mustRun("", "whoami")
	assert.Contains(t, res.stdout, adminEmail)
	assert.Contains(t, res.stdout, "admin")
	assert.Regexp(t, `Permissions\s+all`, res.stdout)

	res = h.mustRun("", "logout")
	assert.Contains(t, res.stdout, "Signed out")

	res = h.run("", "list", "loads")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not signed in")
}

func TestListFiltersAndRememberedTab(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.create(model.CollectionLoads, "commodity=Steel", "status=booked", "rate=2400")
	h.create(model.CollectionLoads, "commodity=Lumber", "status=booked", "rate=1800")
	h.create(model.CollectionLoads, "commodity=Produce", "status=delivered")

	res := h.mustRun("", "list", "loads", "--status", "booked", "--sort", "rate:asc", "-o", "json")
	var page model.Envelope[[]model.Record]
	jsonTail(t, res.stdout, &page)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Lumber", page.Data[0].String("commodity"))
	require.NotNil(t, page.Meta)
	assert.Equal(t, 2, page.Meta.TotalItems)

	// the booked tab is remembered for the loads screen
	res = h.mustRun("", "list", "loads", "--columns", "loadNumber,commodity,status")
	assert.Contains(t, res.stdout, "LOADNUMBER")
	assert.Contains(t, res.stdout, "Steel")
	assert.NotContains(t, res.stdout, "Produce")
	assert.Contains(t, res.stdout, "Page 1 of 1 (2 items)")

	res = h.mustRun("", "list", "loads", "--status", "", "--limit", "1", "--page", "3")
	assert.Contains(t, res.stdout, "Page 3 of 3 (3 items)")

	// the page size is remembered too
	res = h.mustRun("", "list", "loads")
	assert.Contains(t, res.stdout, "Page 1 of 3 (3 items)")

	res = h.run("", "list", "loads", "--from", "03/01/2026")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "--from")
}

func TestUnknownCollectionIsRejected(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("", "list", "widgets")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `unknown collection "widgets"`)
}

func TestGetUpdateToggleDelete(t *testing.T) {
	h := newHarness(t)
	h.login()

	broker := h.create(model.CollectionBrokers, "name=Dana Reyes", "commission=0.08")

	res := h.mustRun("", "update", "brokers", broker.ID(), "--set", "phone=+15125550100")
	assert.Contains(t, res.stdout, "Broker updated successfully")

	res = h.mustRun("", "get", "brokers", broker.ID())
	assert.Regexp(t, `phone\s+\+15125550100`, res.stdout)
	assert.Regexp(t, `commission\s+0.08`, res.stdout)

	res = h.mustRun("", "toggle-active", "brokers", broker.ID())
	assert.Contains(t, res.stdout, "Broker deactivated")

	res = h.mustRun("n\n", "delete", "brokers", broker.ID())
	assert.Contains(t, res.stdout, "Nothing deleted")

	res = h.mustRun("y\n", "delete", "brokers", broker.ID())
	assert.Contains(t, res.stdout, "Broker deleted successfully")

	res = h.run("", "get", "brokers", broker.ID())
	assert.Equal(t, 1, res.code)
	assert.NotEmpty(t, res.stderr)
}

func TestCreateUserThroughStepForm(t *testing.T) {
	h := newHarness(t)
	h.login()

	input := strings.Join([]string{
		// personal details, first with a bad email
		"Ada", "Lovelace", "not-an-email", "",
		// the step is asked again with the typed values as defaults
		"", "", "ada@freightdesk.local", "",
		// address
		"1 Congress Ave", "Austin", "TX", "78701",
		// access
		"dispatcher", "s3cret-pass", "s3cret-pass",
	}, "\n") + "\n"

	res := h.mustRun(input, "create", "users")
	assert.Contains(t, res.stdout, "[1/3] Personal details")
	assert.Contains(t, res.stdout, "First name [Ada]: ")
	assert.Contains(t, res.stdout, "[3/3] Access")
	assert.Contains(t, res.stderr, "Personal details:")
	assert.Contains(t, res.stdout, "User created successfully")

	res = h.mustRun("", "list", "users", "--search", "ada@", "-o", "json")
	var page model.Envelope[[]model.Record]
	jsonTail(t, res.stdout, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Lovelace", page.Data[0].String("lastName"))
	assert.NotContains(t, page.Data[0], "password")
}

func TestStepFormStopsWhenInputEnds(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("Acme Freight\n", "create", "carriers", "-i")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "input closed")
}

func TestExportWritesCSV(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.create(model.CollectionCustomers, "companyName=Northwind", "paymentTerms=net30")
	h.create(model.CollectionCustomers, "companyName=Contoso", "paymentTerms=net15")

	out := filepath.Join(t.TempDir(), "customers.csv")
	res := h.mustRun("", "export", "customers", "--search", "north", "-O", out)
	assert.Contains(t, res.stdout, "Exported customers to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "companyName")
	assert.Contains(t, string(data), "Northwind")
	assert.NotContains(t, string(data), "Contoso")
}

func TestExportUsesRememberedTab(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.create(model.CollectionLoads, "commodity=Steel", "status=booked")
	h.create(model.CollectionLoads, "commodity=Produce", "status=delivered")

	h.mustRun("", "list", "loads", "--status", "booked")

	out := filepath.Join(t.TempDir(), "loads.csv")
	h.mustRun("", "export", "loads", "-O", out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Steel")
	assert.NotContains(t, string(data), "Produce")

	// an explicit empty status exports every tab
	h.mustRun("", "export", "loads", "--status", "", "-O", out)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Steel")
	assert.Contains(t, string(data), "Produce")
}

func TestLoadDocumentsAndAge(t *testing.T) {
	h := newHarness(t)
	h.login()

	load := h.create(model.CollectionLoads, "commodity=Steel")
	loadID := load.ID()

	res := h.mustRun("", "loads", "documents", loadID)
	assert.Contains(t, res.stdout, "has no documents")

	local := filepath.Join(t.TempDir(), "rate con.pdf")
	content := "%PDF-1.4\n% rate confirmation\n"
	require.NoError(t, os.WriteFile(local, []byte(content), 0o644))

	res = h.mustRun("", "loads", "upload", loadID, local)
	assert.Contains(t, res.stdout, "Document uploaded successfully: rate con.pdf")

	res = h.mustRun("", "loads", "documents", loadID)
	assert.Contains(t, res.stdout, "rate con.pdf")
	assert.Contains(t, res.stdout, "application/pdf")

	var withDocs model.Load
	jsonTail(t, h.mustRun("", "get", "loads", loadID, "-o", "json").stdout, &withDocs)
	require.Len(t, withDocs.Documents, 1)

	saved := filepath.Join(t.TempDir(), "copy.pdf")
	h.mustRun("", "loads", "download", loadID, withDocs.Documents[0].ID, "-O", saved)
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	res = h.mustRun("", "loads", "refresh-age", loadID)
	assert.Contains(t, res.stdout, "Load age refreshed")
	assert.Contains(t, res.stdout, load.String("loadNumber")+" posted at")
}

func TestParseDate(t *testing.T) {
	from, err := parseDate("2026-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)

	to, err := parseDate("2026-03-31", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), *to)

	exact, err := parseDate("2026-03-10T08:30:00-05:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC), *exact)

	none, err := parseDate("  ", false)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = parseDate("yesterday", false)
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"carrierId=c-1", " equipment = reefer "})
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "carrierId", params[0].Key)
	assert.Equal(t, "reefer", params[1].Value)

	_, err = parseParams([]string{"carrierId"})
	assert.Error(t, err)

	for _, pair := range []string{"page=3", "sort=rate:desc", " limit =5", "status=booked", "fromDate=2026-01-01"} {
		_, err = parseParams([]string{"carrierId=c-1", pair})
		assert.ErrorContains(t, err, "has its own flag", pair)
	}
}

func TestListRejectsReservedFilter(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("", "list", "loads", "-f", "page=3")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "page has its own flag")

	res = h.run("", "export", "loads", "-f", "sort=rate", "-O", filepath.Join(t.TempDir(), "loads.csv"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "sort has its own flag")
}

func TestPayloadReadsJSONValues(t *testing.T) {
	c := &Console{}

	body, err := c.payload(payloadFlags{set: []string{"name=Dana", "commission=0.08", "isActive=false", `tags=["ltl"]`}})
	require.NoError(t, err)
	assert.Equal(t, "Dana", body["name"])
	assert.Equal(t, 0.08, body["commission"])
	assert.Equal(t, false, body["isActive"])
	assert.Equal(t, []any{"ltl"}, body["tags"])

	_, err = c.payload(payloadFlags{})
	assert.EqualError(t, err, "payload is empty")
}

func TestAuditListsWrites(t *testing.T) {
	h := newHarness(t)
	h.login()

	carrier := h.create(model.CollectionCarriers, "companyName=Blue Line", "mcNumber=MC-4411")
	h.mustRun("", "delete", "carriers", carrier.ID(), "-y")
	res := h.run("", "delete", "carriers", "missing-id", "-y")
	require.Equal(t, 1, res.code)

	res = h.mustRun("", "audit", "--collection", "carriers")
	assert.Contains(t, res.stdout, "ACTION")
	assert.Contains(t, res.stdout, carrier.ID())
	assert.Contains(t, res.stdout, "Page 1 of 1 (3 items)")

	res = h.mustRun("", "audit", "--status", "failure", "-o", "json")
	var env model.Envelope[[]model.Record]
	jsonTail(t, res.stdout, &env)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "missing-id", env.Data[0].String("recordId"))
	assert.Equal(t, model.AuditFailure, env.Data[0].String("status"))
}

func TestCorruptSessionFileStartsSignedOut(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.stateDir, "session.json"), []byte("{oops"), 0o600))

	res := h.run("", "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not signed in")

	res = h.mustRun("", "login", "-e", adminEmail, "-p", adminPassword)
	assert.Contains(t, res.stdout, "Signed in as")
}
