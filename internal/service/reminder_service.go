package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kindred-match/internal/email"
	"kindred-match/internal/repository"
)

// reminderWindow define con cuanta antelacion se avisa un plazo.
const reminderWindow = 48 * time.Hour

// ReminderService avisa por correo a quienes guardaron un evento cuyo plazo
// se acerca, usando las etiquetas del calculador de urgencia.
type ReminderService struct {
	entities     repository.EntityRepository
	interactions repository.InteractionRepository
	profiles     repository.ProfileRepository
	users        repository.UserRepository
	sender       email.Sender
	logger       *zap.Logger

	now func() time.Time
}

func NewReminderService(
	entities repository.EntityRepository,
	interactions repository.InteractionRepository,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	sender email.Sender,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		entities:     entities,
		interactions: interactions,
		profiles:     profiles,
		users:        users,
		sender:       sender,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SendDue recorre los eventos con plazo dentro de la ventana y avisa a cada
// perfil con interaccion positiva. Los fallos por destinatario se loguean y
// no cortan el barrido. Devuelve cuantos correos salieron.
func (s *ReminderService) SendDue(ctx context.Context) (int, error) {
	now := s.now()
	events, err := s.entities.ListEventsWithDeadlineBetween(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return 0, fmt.Errorf("list due events: %w", err)
	}

	sent := 0
	for _, event := range events {
		urgency := UrgencyAt(now, event.Deadlines())
		if urgency.Score == 0 || urgency.Deadline == nil {
			continue
		}

		profileIDs, err := s.interactions.ProfileIDsByTarget(ctx, event.ID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("reminder audience lookup failed", zap.Error(err), zap.String("event_id", event.ID.String()))
			}
			continue
		}

		for _, profileID := range profileIDs {
			profile, err := s.profiles.GetByID(ctx, profileID)
			if err != nil {
				continue
			}
			user, err := s.users.GetByID(ctx, profile.UserID)
			if err != nil || user.Email == "" {
				continue
			}
			if err := s.sender.SendDeadlineReminder(ctx, user.Email, event.Name, urgency.Label, *urgency.Deadline); err != nil {
				if s.logger != nil {
					s.logger.Warn("reminder send failed", zap.Error(err), zap.String("email", user.Email))
				}
				continue
			}
			sent++
		}
	}
	return sent, nil
}
