package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends everything gathered by g to a Prometheus Pushgateway, grouped
// under job and dataset. Short-lived commands such as an ingest run use it
// since nothing scrapes them.
func Push(ctx context.Context, url, job, dataset string, g prometheus.Gatherer) error {
	err := push.New(url, job).
		Gatherer(g).
		Grouping("dataset", dataset).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
