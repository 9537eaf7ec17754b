package fakeapi

import (
	"time"

	"github.com/tgienger/deck/internal/models"
)

// Demo account created by Seed
const (
	DemoEmail    = "demo@deck.local"
	DemoPassword = "password123"
)

// Seed fills the server with a demo account and sample data relative to the server clock
func (s *Server) Seed() {
	demo := s.AddUser("Demo User", DemoEmail, DemoPassword, true)
	now := s.now()
	day := func(n int) time.Time { return now.AddDate(0, 0, n) }
	assignee := demo.ID

	s.AddCommitment(models.Commitment{
		Title: "Ship release notes", DueDate: day(0), Priority: models.CommitmentHigh,
		Status: models.CommitmentInProgress, AssigneeID: &assignee, Assignee: &models.Person{ID: demo.ID, Name: demo.Name},
	})
	s.AddCommitment(models.Commitment{Title: "Quarterly planning", DueDate: day(3), Priority: models.CommitmentMedium})
	s.AddCommitment(models.Commitment{Title: "Security review", DueDate: day(-2), Priority: models.CommitmentHigh})
	s.AddCommitment(models.Commitment{
		Title: "Onboarding docs", DueDate: day(-7), Priority: models.CommitmentLow, Status: models.CommitmentCompleted,
	})
	s.AddCommitment(models.Commitment{
		Title: "Legacy migration", DueDate: day(-30), Priority: models.CommitmentLow, Status: models.CommitmentCompleted, Archived: true,
	})

	s.AddNotification(models.Notification{Type: models.NotificationDueSoon, Message: "Ship release notes is due today", Link: "/commitments"})
	s.AddNotification(models.Notification{Type: models.NotificationMention, Message: "Sam mentioned you on Quarterly planning", Link: "/tasks/1"})
	s.AddNotification(models.Notification{Type: models.NotificationStatusChange, Message: "Onboarding docs was completed", IsRead: true})

	s.AddMeeting(models.Meeting{Title: "Standup", DateTime: day(1), Link: "https://meet.example.com/standup", IsRecurring: true, RecurrenceRule: "FREQ=DAILY"})
	s.AddMeeting(models.Meeting{Title: "Sprint review", DateTime: day(4), Link: "https://meet.example.com/review"})

	s.AddTeam(models.Team{Name: "Platform", Members: []models.Member{
		{Name: "Demo User", Role: "Lead"},
		{Name: "Sam Rivera", Role: "Engineer"},
	}})
	s.AddTeam(models.Team{Name: "Design", Members: []models.Member{
		{Name: "Alex Kim", Role: "Designer"},
	}})
}
