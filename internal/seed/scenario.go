package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"

	"amity/internal/middleware"
	"amity/internal/models"
	"amity/internal/service"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios/demo.yaml
var demoScenario []byte

// Step actions understood by ApplyScenario.
const (
	StepSend    = "send"
	StepAccept  = "accept"
	StepReject  = "reject"
	StepBlock   = "block"
	StepUnblock = "unblock"
)

// Scenario is a named set of users and the relationship steps between them.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Users       []ScenarioUser `yaml:"users"`
	Steps       []Step         `yaml:"steps"`
}

// ScenarioUser declares a user that steps refer to by Key.
type ScenarioUser struct {
	Key       string `yaml:"key"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Staff     bool   `yaml:"staff"`
}

// Step is one transition. For accept and reject the actor is the receiver
// and the target is the sender of the pending request.
// Expect names the error code the step must fail with, if any.
type Step struct {
	Action string `yaml:"action"`
	Actor  string `yaml:"actor"`
	Target string `yaml:"target"`
	Expect string `yaml:"expect"`
}

// DemoScenario returns the built-in demo scenario.
func DemoScenario() (*Scenario, error) {
	return ParseScenario(demoScenario)
}

// LoadScenario reads a YAML scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	keys := make(map[string]bool, len(sc.Users))
	for _, u := range sc.Users {
		if u.Key == "" || u.Email == "" {
			return fmt.Errorf("scenario %q: every user needs a key and an email", sc.Name)
		}
		if keys[u.Key] {
			return fmt.Errorf("scenario %q: duplicate user key %q", sc.Name, u.Key)
		}
		keys[u.Key] = true
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case StepSend, StepAccept, StepReject, StepBlock, StepUnblock:
		default:
			return fmt.Errorf("scenario %q step %d: unknown action %q", sc.Name, i+1, st.Action)
		}
		if !keys[st.Actor] || !keys[st.Target] {
			return fmt.Errorf("scenario %q step %d: unknown user", sc.Name, i+1)
		}
	}
	return nil
}

// ApplyScenario creates the scenario's users and replays its steps in order.
// It returns the created users by key.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(sc.Users))
	for _, su := range sc.Users {
		u, err := s.factory.CreateUser(ctx, func(u *models.User) {
			u.Email = su.Email
			if su.FirstName != "" {
				u.FirstName = su.FirstName
			}
			if su.LastName != "" {
				u.LastName = su.LastName
			}
			u.IsStaff = su.Staff
		})
		if err != nil {
			return nil, err
		}
		users[su.Key] = u
	}

	for i, st := range sc.Steps {
		err := s.applyStep(ctx, users[st.Actor].ID, users[st.Target].ID, st.Action)
		switch {
		case st.Expect == "" && err != nil:
			return nil, fmt.Errorf("step %d (%s %s->%s): %w", i+1, st.Action, st.Actor, st.Target, err)
		case st.Expect != "" && err == nil:
			return nil, fmt.Errorf("step %d (%s %s->%s): expected %s, got success", i+1, st.Action, st.Actor, st.Target, st.Expect)
		case st.Expect != "" && models.AsAppError(err).Code != st.Expect:
			return nil, fmt.Errorf("step %d (%s %s->%s): expected %s: %w", i+1, st.Action, st.Actor, st.Target, st.Expect, err)
		}
	}

	middleware.Logger.Info("scenario applied", "scenario", sc.Name, "users", len(users), "steps", len(sc.Steps))
	return users, nil
}

func (s *Seeder) applyStep(ctx context.Context, actorID, targetID uint, action string) error {
	switch action {
	case StepSend:
		_, err := s.friends.SendRequest(ctx, actorID, targetID)
		return err
	case StepAccept, StepReject:
		req, err := s.repo.GetPendingRequest(ctx, targetID, actorID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("no pending request from user %d to user %d", targetID, actorID)
		}
		verb := service.ActionAccept
		if action == StepReject {
			verb = service.ActionReject
		}
		_, err = s.friends.RespondToRequest(ctx, actorID, req.ID, verb)
		return err
	case StepBlock:
		_, err := s.friends.Block(ctx, actorID, targetID)
		return err
	default:
		return s.friends.Unblock(ctx, actorID, targetID)
	}
}
