package main

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/pkg/ncei"
)

// downloadRequest names the stations to download and where to put them.
type downloadRequest struct {
	Dataset   string
	StartDate string
	EndDate   string
	Stations  []string
	Dir       string
}

type downloadSummary struct {
	Succeeded int
	Failed    int
}

// downloadStations saves each station's data to {Dir}/{id}.json. Requests
// run concurrently but share the client's rate limiter. One station failing
// does not stop the others; only cancellation aborts the batch.
func downloadStations(ctx context.Context, client ncei.Client, req downloadRequest, concurrency int) (downloadSummary, error) {
	if len(req.Stations) == 0 {
		return downloadSummary{}, nil
	}
	if err := artifact.EnsureDir(req.Dir); err != nil {
		return downloadSummary{}, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, id := range req.Stations {
		g.Go(func() error {
			log := zap.L().With(zap.String("station", id))

			res, err := client.FetchData(gctx, ncei.DataRequest{
				Dataset:   req.Dataset,
				Stations:  []string{id},
				StartDate: req.StartDate,
				EndDate:   req.EndDate,
			})
			if err != nil {
				if gctx.Err() != nil {
					return eris.Wrap(gctx.Err(), "download cancelled")
				}
				failed.Add(1)
				log.Error("download failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			path := filepath.Join(req.Dir, id+".json")
			if err := artifact.WriteRawJSON(path, res.Raw); err != nil {
				failed.Add(1)
				log.Error("save station data failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			log.Debug("station data saved", zap.Int("records", len(res.Records)), zap.String("path", path))
			return nil
		})
	}

	err := g.Wait()
	sum := downloadSummary{Succeeded: int(succeeded.Load()), Failed: int(failed.Load())}
	if err != nil {
		return sum, eris.Wrap(err, "download stations")
	}
	return sum, nil
}
