package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsscheduler "github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/rs/zerolog/log"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/utils"
)

// EventBridgeGateway implements Gateway on AWS EventBridge Scheduler with
// one-shot at(...) schedules grouped under a single schedule group.
type EventBridgeGateway struct {
	client *awsscheduler.Client
	group  string
}

var _ Gateway = (*EventBridgeGateway)(nil)

func NewEventBridgeGateway(ctx context.Context, group string) (*EventBridgeGateway, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &EventBridgeGateway{
		client: awsscheduler.NewFromConfig(cfg),
		group:  group,
	}, nil
}

func (g *EventBridgeGateway) Create(ctx context.Context, gameId string, fireAt time.Time, target Target, payload map[string]any) (string, error) {
	out, err := g.client.CreateSchedule(ctx, &awsscheduler.CreateScheduleInput{
		Name:               aws.String(scheduleName(gameId)),
		GroupName:          aws.String(g.group),
		ScheduleExpression: aws.String(atExpression(fireAt)),
		FlexibleTimeWindow: &types.FlexibleTimeWindow{
			Mode: types.FlexibleTimeWindowModeOff,
		},
		Target: &types.Target{
			Arn:     aws.String(target.Arn),
			RoleArn: aws.String(target.RoleArn),
			Input:   aws.String(string(utils.JsonEncode(payload))),
		},
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("gameId", gameId).
		Time("fireAt", fireAt).
		Msg("Registered stop schedule")

	return aws.ToString(out.ScheduleArn), nil
}

func (g *EventBridgeGateway) Delete(ctx context.Context, gameId string) error {
	_, err := g.client.DeleteSchedule(ctx, &awsscheduler.DeleteScheduleInput{
		Name:      aws.String(scheduleName(gameId)),
		GroupName: aws.String(g.group),
	})
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return ErrScheduleNotFound
	}
	return err
}

func scheduleName(gameId string) string {
	return "taskhunt-stop-" + gameId
}

// atExpression renders the one-shot schedule expression. EventBridge
// Scheduler expects a local-less timestamp, so the fire time is rendered in
// UTC without a zone suffix.
func atExpression(fireAt time.Time) string {
	return fmt.Sprintf("at(%s)", fireAt.UTC().Format("2006-01-02T15:04:05"))
}
