package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/modelarena/arena/internal/models"
	"github.com/rs/zerolog"
)

type fakePublisher struct {
	published map[string]models.AgentEvent
	failOn    string
}

func (p *fakePublisher) Publish(_ context.Context, stream string, event models.AgentEvent) error {
	if stream == p.failOn {
		return errors.New("stream unavailable")
	}
	if p.published == nil {
		p.published = make(map[string]models.AgentEvent)
	}
	p.published[stream] = event
	return nil
}

func testRound() *models.EvaluationRound {
	return &models.EvaluationRound{
		SessionID: "s1",
		ThreadID:  "t1",
		UseCase:   models.UseCaseZeroShot,
		Prompt:    "compare",
		Models:    []string{"gpt4", "claude"},
		Completions: map[string]models.ModelCompletion{
			"gpt4":   {ModelID: "gpt4", Text: "a"},
			"claude": {ModelID: "claude", Text: "b"},
		},
	}
}

func TestDispatch_OneEventPerAgentKind(t *testing.T) {
	publisher := &fakePublisher{}
	logger := zerolog.Nop()
	dispatcher := NewDispatcher(publisher, &logger)

	ok := dispatcher.Dispatch(context.Background(), testRound())
	if !ok {
		t.Fatal("expected dispatch to report success")
	}

	if len(publisher.published) != len(models.AllAgentKinds) {
		t.Fatalf("expected %d events, got %d", len(models.AllAgentKinds), len(publisher.published))
	}

	for _, agent := range models.AllAgentKinds {
		event, ok := publisher.published[StreamFor(agent)]
		if !ok {
			t.Errorf("no event on stream for %s", agent)
			continue
		}
		if event.Agent != agent {
			t.Errorf("event on %s stream tagged %s", agent, event.Agent)
		}
		if len(event.Responses) != 2 {
			t.Errorf("event for %s should carry the full completion map, got %d", agent, len(event.Responses))
		}
	}
}

func TestDispatch_PartialFailureReportsFalse(t *testing.T) {
	publisher := &fakePublisher{failOn: StreamFor(models.AgentJudge)}
	logger := zerolog.Nop()
	dispatcher := NewDispatcher(publisher, &logger)

	ok := dispatcher.Dispatch(context.Background(), testRound())
	if ok {
		t.Fatal("expected dispatch to report failure")
	}

	// The failed stream never blocks the others.
	if len(publisher.published) != len(models.AllAgentKinds)-1 {
		t.Fatalf("expected %d events, got %d", len(models.AllAgentKinds)-1, len(publisher.published))
	}
}
