// Package dashboard serves the read-only admin report over the bot's database.
package dashboard

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/database/repository"
	"github.com/artur/clipdrop/internal/logging"
	"github.com/artur/clipdrop/internal/server"
)

const (
	topUsersLimit   = 10
	recentLimit     = 20
	dailyStatsLimit = 30
	refreshInterval = 30 * time.Second
)

//go:embed templates/dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
}).Parse(dashboardHTML))

type TopUser struct {
	Rank      int
	Name      string
	Downloads int64
	Joined    string
}

type PlatformShare struct {
	Platform string
	Count    int64
	Percent  string
}

type RecentDownload struct {
	Time     string
	Platform string
	UserID   int64
	Success  bool
}

// Report is everything rendered on the dashboard page.
type Report struct {
	TotalUsers     int64
	TotalDownloads int64
	TodayUsers     int64
	TodayDownloads int64
	TopUsers       []TopUser
	Platforms      []PlatformShare
	Recent         []RecentDownload
	GeneratedAt    string
	RefreshMillis  int64
}

type Dashboard struct {
	store *repository.Store
	now   func() time.Time
	log   zerolog.Logger
}

func New(store *repository.Store) *Dashboard {
	return &Dashboard{
		store: store,
		now:   time.Now,
		log:   logging.Component("dashboard"),
	}
}

// Routes returns the dashboard router: the HTML report at / and the daily rollup at /api/stats.
func (d *Dashboard) Routes() http.Handler {
	r := server.NewRouter("dashboard")
	r.Get("/", d.handleReport)
	r.Get("/api/stats", d.handleDailyStats)
	return r
}

// Build collects the report. "Today" is the UTC calendar day, matching how
// sqlite stores CURRENT_TIMESTAMP.
func (d *Dashboard) Build(ctx context.Context) (*Report, error) {
	now := d.now().UTC()
	today := now.Format("2006-01-02")

	report := &Report{
		GeneratedAt:   now.Format("2006-01-02 15:04:05"),
		RefreshMillis: refreshInterval.Milliseconds(),
	}

	var err error
	if report.TotalUsers, err = d.store.Users.GetTotalUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if report.TotalDownloads, err = d.store.Downloads.GetSuccessfulDownloads(ctx); err != nil {
		return nil, fmt.Errorf("failed to count downloads: %w", err)
	}
	if report.TodayUsers, err = d.store.Users.CountJoinedOn(ctx, today); err != nil {
		return nil, fmt.Errorf("failed to count today's users: %w", err)
	}
	if report.TodayDownloads, err = d.store.Downloads.CountOn(ctx, today); err != nil {
		return nil, fmt.Errorf("failed to count today's downloads: %w", err)
	}

	users, err := d.store.Users.GetTopUsers(ctx, topUsersLimit)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		report.TopUsers = append(report.TopUsers, TopUser{
			Rank:      i + 1,
			Name:      u.DisplayName(),
			Downloads: u.TotalDownloads,
			Joined:    u.JoinedDate.UTC().Format("2006-01-02"),
		})
	}

	platforms, err := d.store.Downloads.GetPlatformDistribution(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range platforms {
		report.Platforms = append(report.Platforms, PlatformShare{
			Platform: p.Platform,
			Count:    p.Count,
			Percent:  percent(p.Count, report.TotalDownloads),
		})
	}

	recent, err := d.store.Downloads.GetRecent(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	for _, dl := range recent {
		report.Recent = append(report.Recent, RecentDownload{
			Time:     dl.DownloadTime.UTC().Format("15:04"),
			Platform: dl.Platform,
			UserID:   dl.UserID,
			Success:  dl.Success,
		})
	}

	return report, nil
}

func (d *Dashboard) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := d.Build(r.Context())
	if err != nil {
		d.log.Error().Err(err).Msg("failed to build report")
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, report); err != nil {
		d.log.Error().Err(err).Msg("failed to render report")
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (d *Dashboard) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	daily, err := d.store.Stats.GetDaily(r.Context(), dailyStatsLimit)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to load daily stats")
		server.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		return
	}

	server.WriteJSON(w, http.StatusOK, daily)
}

// percent formats count as a share of total with one decimal.
func percent(count, total int64) string {
	if total <= 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(count)/float64(total)*100)
}
