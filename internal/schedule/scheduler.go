package schedule

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/routelens/routelens-backend/internal/api_consistency/repository"
	"github.com/routelens/routelens-backend/internal/api_consistency/scoring"
	"github.com/routelens/routelens-backend/internal/api_consistency/utils"
	exchange "github.com/routelens/routelens-backend/internal/artifact_exchange/service"
)

// DefaultSpec reruns consistency checks nightly at 2:00 AM, after the usual
// CI waves have uploaded fresh artifacts.
const DefaultSpec = "0 0 2 * * *"

type Scheduler struct {
	reports  *repository.ReportRepository
	exchange *exchange.Exchange
	spec     string
	keep     int
}

func NewScheduler(reports *repository.ReportRepository, ex *exchange.Exchange, spec string, keep int) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if keep <= 0 {
		keep = 10
	}
	return &Scheduler{
		reports:  reports,
		exchange: ex,
		spec:     spec,
		keep:     keep,
	}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(s.spec, func() {
		s.RunNightly()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Printf("Cron scheduler started (recheck spec %q)", s.spec)
	c.Start()
}

// RunNightly rechecks every project that has stored reports and prunes old
// rows. Exposed so the worker CLI can trigger it on demand.
func (s *Scheduler) RunNightly() {
	log.Println("Nightly recheck started...")

	if s.reports == nil || s.exchange == nil {
		log.Println("Nightly recheck skipped: storage or exchange not configured")
		return
	}

	ctx := context.Background()

	projectIDs, err := s.reports.ProjectIDs()
	if err != nil {
		log.Printf("Nightly recheck: listing projects failed: %v", err)
		return
	}

	for _, projectID := range projectIDs {
		res, err := s.exchange.Recheck(ctx, projectID)
		if err != nil {
			log.Printf("Nightly recheck: project %s failed: %v", projectID, err)
			continue
		}

		stored := &repository.StoredReport{
			ProjectID: projectID,
			RunID:     utils.NewID(),
			Score:     scoring.Summarize(res.Report).Score,
			Report:    res.Report,
		}
		if err := s.reports.Save(stored); err != nil {
			log.Printf("Nightly recheck: saving report for %s failed: %v", projectID, err)
			continue
		}

		if n, err := s.reports.Prune(projectID, s.keep); err != nil {
			log.Printf("Nightly recheck: pruning %s failed: %v", projectID, err)
		} else if n > 0 {
			log.Printf("Nightly recheck: pruned %d old reports for %s", n, projectID)
		}
	}

	log.Println("Nightly recheck completed at:", time.Now().Format(time.RFC1123))
}
