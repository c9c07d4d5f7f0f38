package notify

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/srikanthsri1729/homescan-ai/internal/inventory"
)

type mockMemberSource struct {
	members []*inventory.Member
	err     error
}

func (m *mockMemberSource) ListAllMembers(ctx context.Context) ([]*inventory.Member, error) {
	return m.members, m.err
}

type mockGenerator struct {
	created map[string]int
	errs    map[string]error
	calls   [][2]string
}

func (m *mockGenerator) Generate(ctx context.Context, userID, householdID string) (*inventory.GenerateResult, error) {
	m.calls = append(m.calls, [2]string{userID, householdID})
	if err := m.errs[userID]; err != nil {
		return nil, err
	}
	return &inventory.GenerateResult{Success: true, NotificationsCreated: m.created[userID]}, nil
}

var _ = Describe("Scheduler", func() {
	var (
		members   *mockMemberSource
		generator *mockGenerator
		scheduler *Scheduler
	)

	BeforeEach(func() {
		members = &mockMemberSource{members: []*inventory.Member{
			{HouseholdID: "hh-1", UserID: "user-1"},
			{HouseholdID: "hh-1", UserID: "user-2"},
			{HouseholdID: "hh-2", UserID: "user-3"},
		}}
		generator = &mockGenerator{
			created: map[string]int{"user-1": 2, "user-3": 1},
			errs:    map[string]error{},
		}
	})

	JustBeforeEach(func() {
		scheduler = NewScheduler(members, generator, "", 0)
	})

	It("defaults the schedule and timeout", func() {
		Expect(scheduler.schedule).To(Equal(DefaultSchedule))
		Expect(scheduler.timeout).To(BeNumerically(">", 0))
	})

	It("generates for every membership and totals the results", func() {
		created, err := scheduler.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(Equal(3))
		Expect(generator.calls).To(Equal([][2]string{{"user-1", "hh-1"}, {"user-2", "hh-1"}, {"user-3", "hh-2"}}))
	})

	It("skips members whose generation fails", func() {
		generator.errs["user-1"] = errors.New("model offline")

		created, err := scheduler.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(Equal(1))
		Expect(generator.calls).To(HaveLen(3))
	})

	It("returns the listing error", func() {
		members.err = errors.New("db closed")

		_, err := scheduler.Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("listing members: db closed")))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := scheduler.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(generator.calls).To(BeEmpty())
	})

	It("rejects an invalid schedule", func() {
		scheduler = NewScheduler(members, generator, "not a schedule", 0)
		Expect(scheduler.Start()).To(MatchError(ContainSubstring("scheduling notifications")))
	})

	It("starts and stops", func() {
		Expect(scheduler.Start()).To(Succeed())
		scheduler.Stop()
	})
})
