// README: Scenario checks: environment, fare scenarios, audit trail, republish and a load run.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"mobility-pricing/internal/modules/usersummary"
	"mobility-pricing/migrations"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// resultIDs collects audit ids returned by the scenario checks.
	resultIDs []string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

// stubSummaries are served to the API by the stub user summary service.
var stubSummaries = map[string]usersummary.Summary{
	"bench-bus": {KeycloakID: "bench-bus", HasActivePass: false, DailyCap: 1000, CurrentSpent: 10},
	"bench-ter": {KeycloakID: "bench-ter", HasActivePass: true, PassType: "MONTHLY", ActiveDiscountRate: 0.20, DailyCap: 2500, CurrentSpent: 2000},
	"bench-brt": {KeycloakID: "bench-brt", HasActivePass: true, PassType: "MONTHLY", ActiveDiscountRate: 0.30, DailyCap: 100000},
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}
	stub := r.startSummaryStub()

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if stub != nil {
		_ = stub.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) startSummaryStub() *http.Server {
	if r.cfg.SummaryAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/summary/{id}", func(w http.ResponseWriter, req *http.Request) {
		s, ok := stubSummaries[req.PathValue("id")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s)
	})
	srv := &http.Server{Addr: r.cfg.SummaryAddr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type quote struct {
	ResultID         string          `json:"resultId"`
	BasePrice        decimal.Decimal `json:"basePrice"`
	DiscountApplied  decimal.Decimal `json:"discountApplied"`
	FinalPrice       decimal.Decimal `json:"finalPrice"`
	CapReached       bool            `json:"capReached"`
	AppliedDiscounts []struct {
		RuleType       string          `json:"ruleType"`
		AmountDeducted decimal.Decimal `json:"amountDeducted"`
	} `json:"appliedDiscounts"`
}

type scenario struct {
	name        string
	event       map[string]any
	base, final string
	capReached  bool
	deductions  []string
}

var scenarios = []scenario{
	{
		name:  "Scenario: BUS 3 sections under cap",
		event: map[string]any{"tripId": 900001, "userId": "bench-bus", "transportType": "BUS", "numberOfSections": 3},
		base:  "300.00", final: "300.00",
	},
	{
		name:  "Scenario: TER subscription hits cap",
		event: map[string]any{"tripId": 900002, "userId": "bench-ter", "transportType": "TER", "numberOfSections": 2},
		base:  "1500.00", final: "500.00", capReached: true,
		deductions: []string{"300.00", "700.00"},
	},
	{
		name:  "Scenario: BRT cross zone with chained discounts",
		event: map[string]any{"tripId": 900003, "userId": "bench-brt", "transportType": "BRT", "startZone": 1, "endZone": 2},
		base:  "500.00", final: "252.00",
		deductions: []string{"150.00", "70.00", "28.00"},
	},
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	tests := []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Env: Redis connect (idempotency guard)",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(migrations.FS)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, t).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table " + t}
					}
				}
				return Result{Status: "PASS", Note: fmt.Sprintf("%d tables", len(tables))}
			},
		},
		{
			Name: "HTTP: health",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, latency, err := r.do(ctx, http.MethodGet, base+"/health", nil)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", status)}
				}
				return Result{Status: "PASS", Latency: latency}
			},
		},
		{
			Name: "Admin: seed BRT scenario rules",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.SeedRules {
					return Result{Status: "SKIP", Note: "seed-rules=false"}
				}
				for _, rule := range []map[string]any{
					{"ruleType": "OFFPEAK", "percentage": 20, "priority": 1, "condition": "ALL"},
					{"ruleType": "LOYALTY", "percentage": 10, "priority": 2, "condition": "ALL"},
				} {
					status, body, _, err := r.do(ctx, http.MethodPost, base+"/admin/discount-rules", rule)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if status != http.StatusCreated {
						return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d body=%s", status, body)}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Validation: missing userId is rejected",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, latency, err := r.do(ctx, http.MethodPost, base+"/api/pricing/calculate", map[string]any{"tripId": 1, "transportType": "BUS"})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusBadRequest {
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", status)}
				}
				return Result{Status: "PASS", Latency: latency}
			},
		},
	}

	for _, sc := range scenarios {
		tests = append(tests, TestCase{
			Name: sc.name,
			Run: func(ctx context.Context, r *Runner) Result {
				return r.runScenario(ctx, sc)
			},
		})
	}

	return append(tests,
		TestCase{
			Name: "Audit: results recorded per trip",
			Run: func(ctx context.Context, r *Runner) Result {
				if len(r.resultIDs) == 0 {
					return Result{Status: "SKIP", Note: "no scenario produced a result"}
				}
				status, _, latency, err := r.do(ctx, http.MethodGet, base+"/api/pricing/results/"+r.resultIDs[0], nil)
				if err != nil || status != http.StatusOK {
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d err=%v", status, err)}
				}
				if r.db == nil {
					return Result{Status: "PASS", Latency: latency}
				}
				var n int
				if err := r.db.QueryRow(ctx, `SELECT count(*) FROM pricing_results WHERE id = $1::uuid`, r.resultIDs[0]).Scan(&n); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if n != 1 {
					return Result{Status: "FAIL", Note: fmt.Sprintf("rows=%d", n)}
				}
				return Result{Status: "PASS", Latency: latency}
			},
		},
		TestCase{
			Name: "Publish: republish existing result",
			Run: func(ctx context.Context, r *Runner) Result {
				if len(r.resultIDs) == 0 {
					return Result{Status: "SKIP", Note: "no scenario produced a result"}
				}
				status, _, latency, err := r.do(ctx, http.MethodPost, base+"/api/pricing/results/"+r.resultIDs[0]+"/republish", nil)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusAccepted {
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", status)}
				}
				return Result{Status: "PASS", Latency: latency}
			},
		},
		TestCase{
			Name: "Perf: concurrent calculate",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/pricing/calculate", map[string]any{
					"tripId": 999999, "userId": "bench-load", "transportType": "BUS", "numberOfSections": 1,
				})
			},
		},
	)
}

func (r *Runner) runScenario(ctx context.Context, sc scenario) Result {
	status, body, latency, err := r.do(ctx, http.MethodPost, r.cfg.BaseURL+"/api/pricing/calculate", sc.event)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d body=%s", status, body)}
	}
	var q quote
	if err := json.Unmarshal(body, &q); err != nil {
		return Result{Status: "FAIL", Latency: latency, Note: err.Error()}
	}
	r.resultIDs = append(r.resultIDs, q.ResultID)

	if !q.DiscountApplied.Equal(q.BasePrice.Sub(q.FinalPrice)) {
		return Result{Status: "FAIL", Latency: latency, Note: "discountApplied != basePrice - finalPrice"}
	}
	if q.BasePrice.StringFixed(2) != sc.base || q.FinalPrice.StringFixed(2) != sc.final || q.CapReached != sc.capReached {
		return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("base=%s final=%s capReached=%v",
			q.BasePrice.StringFixed(2), q.FinalPrice.StringFixed(2), q.CapReached)}
	}
	if sc.deductions != nil {
		got := make([]string, len(q.AppliedDiscounts))
		for i, d := range q.AppliedDiscounts {
			got[i] = d.AmountDeducted.StringFixed(2)
		}
		if fmt.Sprint(got) != fmt.Sprint(sc.deductions) {
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("deductions=%v want %v", got, sc.deductions)}
		}
	}
	return Result{Status: "PASS", Latency: latency}
}

func (r *Runner) do(ctx context.Context, method, url string, payload any) (int, []byte, time.Duration, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return resp.StatusCode, b, latency, err
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					errCount.Add(1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				if resp.StatusCode >= 300 {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}

var createTableRe = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func extractTables(fsys fs.FS) ([]string, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	var tables []string
	for _, f := range files {
		b, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, err
		}
		for _, m := range createTableRe.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
	}
	return tables, nil
}
