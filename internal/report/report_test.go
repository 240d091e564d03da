package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gymmatch/manager-api/internal/compensation"
	"github.com/gymmatch/manager-api/internal/notification"
	"github.com/gymmatch/manager-api/internal/revenue"
)

func float(v float64) *float64 { return &v }

type fakeSource struct {
	policies map[string]revenue.Policy
	err      error
	asked    []time.Time
}

func (f *fakeSource) EffectivePolicy(_ context.Context, trainerID string, at time.Time) (revenue.Policy, error) {
	f.asked = append(f.asked, at)
	if f.err != nil {
		return revenue.Policy{}, f.err
	}
	p, ok := f.policies[trainerID]
	if !ok {
		return revenue.Policy{}, compensation.ErrPolicyNotFound
	}
	return p, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notification.Alert
	done   chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 10)}
}

func (n *recordingNotifier) Notify(_ context.Context, a notification.Alert) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, a)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) notification.Alert {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("no alert sent")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.alerts[len(n.alerts)-1]
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestHandler(src PolicySource, n notification.Notifier) *Handler {
	return NewHandler(NewService(src, n, discard()), discard())
}

func post(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func standardSource() *fakeSource {
	return &fakeSource{policies: map[string]revenue.Policy{
		"t1": {TrainerID: "t1", TrainerName: "Sato", Scheme: revenue.Percentage{Rate: 40}},
		"t2": {TrainerID: "t2", TrainerName: "Suzuki", Scheme: revenue.Fixed{AmountPerSession: 5000}, MinimumGuarantee: float(100000)},
		"t3": {TrainerID: "t3", Scheme: revenue.Tiered{}},
	}}
}

const period = `"period":{"startDate":"2025-01-01T00:00:00Z","endDate":"2025-01-31T00:00:00Z"}`

func TestDistribution(t *testing.T) {
	src := standardSource()
	h := newTestHandler(src, newRecordingNotifier())

	body := `{` + period + `,
		"trainers":[
			{"trainerId":"t1","grossRevenue":300000,"sessions":{"total":30,"completed":28,"canceled":2}},
			{"trainerId":"t2","trainerName":"Suzuki Hanako","grossRevenue":200000,"sessions":{"total":10,"completed":10}},
			{"trainerId":"t3","grossRevenue":600000,"sessions":{"total":40,"completed":40}}
		],
		"expenses":{"rent":100000,"utilities":20000},
		"sortBy":"compensation"}`
	rec := post(h.Distribution, "/revenue/distribution", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var got revenue.RevenueDistribution
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}

	// t1 40% of 300000, t2 guarantee lifts 50000 to 100000, t3 default tier 45%
	wantOrder := []struct {
		id   string
		comp float64
	}{{"t3", 270000}, {"t1", 120000}, {"t2", 100000}}
	for i, w := range wantOrder {
		d := got.TrainerDistributions[i]
		if d.TrainerID != w.id || d.Compensation != w.comp {
			t.Fatalf("rank %d: expected %s/%v, got %s/%v", i, w.id, w.comp, d.TrainerID, d.Compensation)
		}
	}
	if got.TrainerDistributions[0].CalculationDetails.AppliedTier == nil {
		t.Fatalf("expected the applied tier to be reported")
	}
	if got.TrainerDistributions[1].TrainerName != "Sato" || got.TrainerDistributions[2].TrainerName != "Suzuki Hanako" {
		t.Fatalf("unexpected names: %+v", got.TrainerDistributions)
	}
	if got.TrainerDistributions[2].CompensationPercentage != 50 {
		t.Fatalf("guarantee percentage not recomputed: %v", got.TrainerDistributions[2].CompensationPercentage)
	}
	if got.TotalRevenue != 1100000 || got.GymRevenue != 610000 {
		t.Fatalf("unexpected totals %v / %v", got.TotalRevenue, got.GymRevenue)
	}
	if got.Expenses == nil || got.Expenses.Total != 120000 || got.NetProfit == nil || *got.NetProfit != 490000 {
		t.Fatalf("unexpected expenses %+v / %v", got.Expenses, got.NetProfit)
	}
	for _, at := range src.asked {
		if !at.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("policies must be looked up at the period start, got %v", at)
		}
	}
}

func TestDistributionErrors(t *testing.T) {
	cases := []struct {
		name string
		src  *fakeSource
		body string
		want int
	}{
		{"missing policy", standardSource(), `{` + period + `,"trainers":[{"trainerId":"ghost","grossRevenue":1}]}`, http.StatusUnprocessableEntity},
		{"store failure", &fakeSource{err: errors.New("db down")}, `{` + period + `,"trainers":[{"trainerId":"t1","grossRevenue":1}]}`, http.StatusInternalServerError},
		{"inverted period", standardSource(), `{"period":{"startDate":"2025-02-01T00:00:00Z","endDate":"2025-01-01T00:00:00Z"},"trainers":[]}`, http.StatusBadRequest},
		{"bad sortBy", standardSource(), `{` + period + `,"trainers":[],"sortBy":"age"}`, http.StatusBadRequest},
		{"negative sessions", standardSource(), `{` + period + `,"trainers":[{"trainerId":"t1","sessions":{"completed":-1}}]}`, http.StatusBadRequest},
		{"unknown bonus type", standardSource(), `{` + period + `,"trainers":[{"trainerId":"t1","bonuses":[{"type":"gift","amount":5000}]}]}`, http.StatusBadRequest},
		{"negative bonus", standardSource(), `{` + period + `,"trainers":[{"trainerId":"t1","bonuses":[{"type":"referral","amount":-5000}]}]}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(newTestHandler(tc.src, nil).Distribution, "/revenue/distribution", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestNegativeGymRevenueAlerts(t *testing.T) {
	src := &fakeSource{policies: map[string]revenue.Policy{
		"t1": {TrainerID: "t1", Scheme: revenue.Percentage{Rate: 10}, MinimumGuarantee: float(200000)},
	}}
	n := newRecordingNotifier()
	rec := post(newTestHandler(src, n).Distribution, "/revenue/distribution",
		`{`+period+`,"trainers":[{"trainerId":"t1","grossRevenue":100000}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	alert := n.wait(t)
	if alert.Kind != notification.KindNegativeGymRevenue || alert.Details["gymRevenue"] != -100000.0 {
		t.Fatalf("unexpected alert %+v", alert)
	}
}

func TestSimulate(t *testing.T) {
	h := newTestHandler(standardSource(), nil)
	rec := post(h.Simulate, "/revenue/simulate",
		`{"policy":{"type":"tiered"},"range":{"min":0,"max":1000000,"step":500000}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var got SimulateResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := []revenue.SimulationPoint{
		{Revenue: 0, Compensation: 0, Percentage: 0},
		{Revenue: 500000, Compensation: 225000, Percentage: 45},
		{Revenue: 1000000, Compensation: 500000, Percentage: 50},
	}
	if got.Type != revenue.CompensationTiered || len(got.Points) != len(want) {
		t.Fatalf("unexpected response %+v", got)
	}
	for i := range want {
		if got.Points[i] != want[i] {
			t.Fatalf("point %d: expected %+v, got %+v", i, want[i], got.Points[i])
		}
	}
}

func TestSimulateRejects(t *testing.T) {
	h := newTestHandler(standardSource(), nil)
	cases := map[string]string{
		"zero step":    `{"policy":{"type":"percentage","percentage":40},"range":{"min":0,"max":100,"step":0}}`,
		"max below":    `{"policy":{"type":"percentage","percentage":40},"range":{"min":100,"max":0,"step":10}}`,
		"unknown type": `{"policy":{"type":"bonus"},"range":{"min":0,"max":100,"step":10}}`,
		"too many":     `{"policy":{"type":"percentage","percentage":40},"range":{"min":0,"max":100000000,"step":1}}`,
		"bad rate":     `{"policy":{"type":"percentage","percentage":140},"range":{"min":0,"max":100,"step":10}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if rec := post(h.Simulate, "/revenue/simulate", body); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestSimulateUsesConfiguredTiers(t *testing.T) {
	h := newTestHandler(standardSource(), nil)
	h.DefaultTiers = []revenue.Tier{{RevenueThreshold: 0, Percentage: 30}}
	rec := post(h.Simulate, "/revenue/simulate", `{"policy":{"type":"tiered"},"range":{"min":100000,"max":100000,"step":1}}`)
	var got SimulateResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Points) != 1 || got.Points[0].Compensation != 30000 {
		t.Fatalf("unexpected points %+v", got.Points)
	}
}

func TestCompare(t *testing.T) {
	h := newTestHandler(standardSource(), nil)
	rec := post(h.Compare, "/revenue/compare", `{"grossRevenue":600000,"plans":[
		{"name":"current","policy":{"type":"percentage","percentage":40}},
		{"name":"tiered","policy":{"type":"tiered"}},
		{"name":"fixed","policy":{"type":"fixed","fixedAmount":5000}}
	]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var got []revenue.PlanComparison
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := []revenue.PlanComparison{
		{Name: "current", Compensation: 240000, Percentage: 40, Difference: 0},
		{Name: "tiered", Compensation: 270000, Percentage: 45, Difference: 30000},
		{Name: "fixed", Compensation: 5000, Percentage: 0.8, Difference: -235000},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("plan %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if rec := post(h.Compare, "/revenue/compare", `{"grossRevenue":1,"plans":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for no plans, got %d", rec.Code)
	}
}

func TestTarget(t *testing.T) {
	n := newRecordingNotifier()
	h := newTestHandler(standardSource(), n)

	rec := post(h.Target, "/revenue/target", `{"actual":850000,"target":1000000}`)
	var got revenue.TargetAchievement
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != revenue.TargetAchieved || got.AchievementRate != 85 || got.Difference != -150000 {
		t.Fatalf("unexpected result %+v", got)
	}

	rec = post(h.Target, "/revenue/target", `{"actual":1000,"target":0}`)
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != revenue.TargetUnmeasurable || got.AchievementRate != 0 {
		t.Fatalf("unexpected result %+v", got)
	}
	if alert := n.wait(t); alert.Kind != notification.KindUnmeasurableTarget {
		t.Fatalf("unexpected alert %+v", alert)
	}
}

func TestCompensationTypes(t *testing.T) {
	h := newTestHandler(standardSource(), nil)
	rec := httptest.NewRecorder()
	h.CompensationTypes(rec, httptest.NewRequest(http.MethodGet, "/revenue/compensation-types", nil))
	var got CompensationTypesResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Types) != 3 || got.Types[0].Label == "" || len(got.DefaultTiers) != len(revenue.DefaultTiers) {
		t.Fatalf("unexpected response %+v", got)
	}
}
