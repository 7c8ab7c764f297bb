package service

import (
	"context"
	"encoding/json"

	"ai-storybook-be/internal/dto"
	"ai-storybook-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type ICascadeService interface {
	Consume(ctx context.Context) error
}

// cascadeService drains the stage-events topic and re-evaluates the named
// artifact. Every stage outcome lands here, so a ready stage immediately
// unlocks its dependents without any polling.
type cascadeService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	generationService IGenerationService
	logger            logger.ILogger
}

func NewCascadeService(
	pubSub *gochannel.GoChannel,
	topicName string,
	generationService IGenerationService,
	log logger.ILogger,
) ICascadeService {
	return &cascadeService{
		pubSub:            pubSub,
		topicName:         topicName,
		generationService: generationService,
		logger:            log,
	}
}

func (cs *cascadeService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *cascadeService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEvaluateMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("cascade", "failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads never become valid, drop them
		return
	}

	if err := cs.generationService.Evaluate(ctx, payload.ArtifactId); err != nil {
		cs.logger.Error("cascade", "artifact evaluation failed", map[string]interface{}{
			"artifact_id": payload.ArtifactId,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
