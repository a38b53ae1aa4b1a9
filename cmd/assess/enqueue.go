package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/site-assessment/internal/pkg/utils"
	"github.com/site-assessment/internal/repository/cache"
	redisRepo "github.com/site-assessment/internal/repository/redis"
)

var (
	enqueueLat float64
	enqueueLon float64
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Publish an assessment request to stream:assessment:request",
	Long: `Publishes {"request_id", "lat", "lon"} for the worker. The result arrives on
stream:assessment:done with the same request_id.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		redisClient, err := cache.NewRedis(cmd.Context(), &cfg.Redis, log)
		if err != nil {
			return eris.Wrap(err, "enqueue: connect redis")
		}
		defer redisClient.Close()

		streams := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)
		id, err := enqueueRequest(cmd.Context(), streams, enqueueLat, enqueueLon)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), id.String())
		return nil
	},
}

func init() {
	enqueueCmd.Flags().Float64Var(&enqueueLat, "lat", 0, "center latitude (required)")
	enqueueCmd.Flags().Float64Var(&enqueueLon, "lon", 0, "center longitude (required)")
	_ = enqueueCmd.MarkFlagRequired("lat")
	_ = enqueueCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(enqueueCmd)
}

func enqueueRequest(ctx context.Context, streams repository.StreamRepository, lat, lon float64) (uuid.UUID, error) {
	if !utils.ValidateCoordinates(lat, lon) {
		return uuid.Nil, eris.Errorf("enqueue: coordinates out of range: %v, %v", lat, lon)
	}

	event := domain.AssessmentRequestEvent{
		RequestID: uuid.New(),
		Lat:       &lat,
		Lon:       &lon,
	}
	if err := streams.PublishToStream(ctx, domain.StreamAssessmentRequest, event); err != nil {
		return uuid.Nil, eris.Wrap(err, "enqueue: publish")
	}
	return event.RequestID, nil
}
