package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/clock"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/sanitize"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/store"
	pkglog "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/log"
	"golang.org/x/sync/singleflight"
)

const participantsKey = "participants"

type presenceService struct {
	participants store.ParticipantStore
	messages     store.MessageLog
	clock        clock.Clock
	stamper      *clock.Stamper
	sanitizer    *sanitize.Sanitizer
	validate     *validator.Validate
	sf           singleflight.Group
}

// NewPresenceService creates a new PresenceService instance.
func NewPresenceService(
	participants store.ParticipantStore,
	messages store.MessageLog,
	clk clock.Clock,
	stamper *clock.Stamper,
	sanitizer *sanitize.Sanitizer,
) PresenceService {
	return &presenceService{
		participants: participants,
		messages:     messages,
		clock:        clk,
		stamper:      stamper,
		sanitizer:    sanitizer,
		validate:     newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("sendable_kind", func(fl validator.FieldLevel) bool {
		k, ok := domain.ParseKind(fl.Field().String())
		return ok && k.Sendable()
	})
	return v
}

func (s *presenceService) Join(ctx context.Context, rawName string) error {
	name := s.sanitizer.Text(rawName)
	if name == "" {
		return domain.NewValidationError("name is required")
	}

	now := s.clock.Now()
	if err := s.participants.Join(ctx, name, now); err != nil {
		return err
	}

	l := pkglog.Ctx(ctx)
	l.Info().Str(pkglog.FieldParticipant, name).Msg("participant joined")

	// The participant is already registered; a failed announcement is
	// reported but does not undo the join.
	if err := s.messages.Append(ctx, domain.NewStatus(name, domain.StatusEntered, s.stamper.Stamp(now))); err != nil {
		return fmt.Errorf("failed to announce %s: %w", name, err)
	}
	return nil
}

func (s *presenceService) Send(ctx context.Context, from string, in SendInput) error {
	in = SendInput{
		To:   s.sanitizer.Text(in.To),
		Text: s.sanitizer.Text(in.Text),
		Kind: strings.TrimSpace(in.Kind),
	}
	if err := s.validate.Struct(in); err != nil {
		return toValidationError(err)
	}
	kind, _ := domain.ParseKind(in.Kind)

	sender := s.sanitizer.Text(from)
	if sender == "" {
		return domain.ErrNotFound
	}

	now := s.clock.Now()
	if err := s.participants.Touch(ctx, sender, now); err != nil {
		return err
	}

	msg := domain.NewMessage(sender, in.To, in.Text, kind, s.stamper.Stamp(now))
	if err := s.messages.Append(ctx, msg); err != nil {
		return err
	}

	l := pkglog.Ctx(ctx)
	l.Debug().
		Str(pkglog.FieldMessageID, msg.ID).
		Str(pkglog.FieldKind, string(msg.Kind)).
		Msg("message appended")
	return nil
}

func (s *presenceService) Heartbeat(ctx context.Context, identity string) error {
	name := s.sanitizer.Text(identity)
	if name == "" {
		return domain.ErrNotFound
	}
	return s.participants.Touch(ctx, name, s.clock.Now())
}

func (s *presenceService) Participants(ctx context.Context) ([]domain.Participant, error) {
	// Concurrent listings share one store round trip, so the call must not
	// die with whichever caller happened to start it.
	shared := context.WithoutCancel(ctx)
	result, err, _ := s.sf.Do(participantsKey, func() (interface{}, error) {
		return s.participants.List(shared)
	})
	if err != nil {
		return nil, err
	}

	list, ok := result.([]domain.Participant)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}

	// Callers may share the slice; hand each one its own copy.
	out := make([]domain.Participant, len(list))
	copy(out, list)
	return out, nil
}

func (s *presenceService) Messages(ctx context.Context, viewer, rawLimit string) ([]domain.Message, error) {
	limit, ok := parseLimit(rawLimit)
	if !ok || limit < 1 {
		return nil, domain.NewValidationError("limit must be a positive integer")
	}
	return s.messages.Recent(ctx, s.sanitizer.Text(viewer), limit)
}

// parseLimit reads the leading integer of raw, so "2.5" and "3abc" give 2
// and 3. Values past the int range saturate.
func parseLimit(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.Atoi(raw[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(err.Error())
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details = append(details, fe.Field()+" is required")
		case "sendable_kind":
			details = append(details, fmt.Sprintf("kind %q cannot be sent", fe.Value()))
		default:
			details = append(details, fe.Field()+" is invalid")
		}
	}
	return domain.NewValidationError(details...)
}
