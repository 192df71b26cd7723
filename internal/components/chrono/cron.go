package chrono

import (
	"fmt"
	"time"

	"ao3scraper/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

// CronAPI runs callbacks on a cron schedule.
type CronAPI interface {
	Cron(spec string, callback func()) error
	Stop()
}

// CronScheduler implements CronAPI with `github.com/robfig/cron/v3`. Specs are read
// in UTC, descriptors like `@every 1h` work too. A run that is still going when its
// next one is due makes that next run get skipped.
type CronScheduler struct {
	cron *cron.Cron
}

func NewCronScheduler(tel telemetry.API) CronScheduler {
	reporter := cronReporter{tel: telemetry.NewScopedAPI("cron", tel)}
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(reporter),
		cron.WithChain(
			cron.Recover(reporter),
			cron.SkipIfStillRunning(reporter),
		),
	)
	scheduler.Start()
	return CronScheduler{cron: scheduler}
}

func (s CronScheduler) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

// Stop waits for running callbacks to return, nothing is scheduled afterwards.
func (s CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronReporter adapts telemetry.API to cron.Logger.
type cronReporter struct {
	tel telemetry.API
}

func pairs(keysAndValues []any) []any {
	out := make([]any, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return out
}

func (r cronReporter) Info(msg string, keysAndValues ...any) {
	r.tel.ReportDebug(msg, pairs(keysAndValues)...)
}

func (r cronReporter) Error(err error, msg string, keysAndValues ...any) {
	params := append([]any{fmt.Errorf("%s: %w", msg, err)}, pairs(keysAndValues)...)
	r.tel.ReportBroken("job", params...)
}
