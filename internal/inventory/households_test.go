package inventory

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Households", func() {
	var (
		db        *mockDB
		publisher *mockPublisher
		notifier  *mockNotifier
		timeSrc   *mockTimeSource
		service   *Service
		ctx       context.Context
	)

	BeforeEach(func() {
		db = &mockDB{DB: newTestBoltDB()}
		publisher = &mockPublisher{}
		notifier = &mockNotifier{}
		timeSrc = &mockTimeSource{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, newMockStorage(), publisher, notifier, &sequenceIDGenerator{}, timeSrc)
		ctx = context.Background()
	})

	Describe("CreateHousehold", func() {
		It("creates the household with the owner as a member", func() {
			household, err := service.CreateHousehold(ctx, "user-1", " Home ", "main house")
			Expect(err).NotTo(HaveOccurred())
			Expect(household.Name).To(Equal("Home"))
			Expect(household.OwnerID).To(Equal("user-1"))

			members, err := service.ListMembers(ctx, household.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(members).To(HaveLen(1))
			Expect(members[0].UserID).To(Equal("user-1"))
			Expect(members[0].Role).To(Equal(RoleOwner))
		})

		It("requires a name", func() {
			_, err := service.CreateHousehold(ctx, "user-1", "", "")
			Expect(err).To(MatchError(ErrInvalidInput))
		})

		It("requires an owner", func() {
			_, err := service.CreateHousehold(ctx, "", "Home", "")
			Expect(err).To(MatchError(ErrInvalidInput))
		})

		When("the owner membership cannot be saved", func() {
			BeforeEach(func() {
				db.saveMemberErr = errors.New("locked")
			})

			It("returns the error", func() {
				_, err := service.CreateHousehold(ctx, "user-1", "Home", "")
				Expect(err).To(MatchError(ContainSubstring("saving owner membership")))
			})
		})
	})

	Describe("ListHouseholds", func() {
		It("returns the user's households, oldest membership first", func() {
			first, err := service.CreateHousehold(ctx, "user-1", "Home", "")
			Expect(err).NotTo(HaveOccurred())
			timeSrc.advance(time.Hour)
			second, err := service.CreateHousehold(ctx, "user-1", "Cabin", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateHousehold(ctx, "user-2", "Elsewhere", "")
			Expect(err).NotTo(HaveOccurred())

			households, err := service.ListHouseholds(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(households).To(HaveLen(2))
			Expect(households[0].ID).To(Equal(first.ID))
			Expect(households[1].ID).To(Equal(second.ID))
		})
	})

	Describe("UpdateHousehold", func() {
		var household *Household

		BeforeEach(func() {
			var err error
			household, err = service.CreateHousehold(ctx, "user-1", "Home", "old")
			Expect(err).NotTo(HaveOccurred())
		})

		It("changes only the given fields", func() {
			updated, err := service.UpdateHousehold(ctx, household.ID, nil, ptr("new"))
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Home"))
			Expect(updated.Description).To(Equal("new"))
			Expect(publisher.types()).To(ContainElement("household_updated"))
		})

		It("rejects a blank name", func() {
			_, err := service.UpdateHousehold(ctx, household.ID, ptr(" "), nil)
			Expect(err).To(MatchError(ErrInvalidInput))
		})

		It("returns ErrNotFound for a missing household", func() {
			_, err := service.UpdateHousehold(ctx, "nonexistent", ptr("x"), nil)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("authorization", func() {
		var household *Household

		BeforeEach(func() {
			var err error
			household, err = service.CreateHousehold(ctx, "alice", "Flat", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(db.SaveMember(ctx, &Member{ID: "m-bob", HouseholdID: household.ID, UserID: "bob", Role: RoleMember, JoinedAt: timeSrc.now})).To(Succeed())
		})

		It("allows members", func() {
			Expect(service.AuthorizeHousehold(ctx, "alice", household.ID)).To(Succeed())
			Expect(service.AuthorizeHousehold(ctx, "bob", household.ID)).To(Succeed())
		})

		It("rejects users outside the household", func() {
			Expect(service.AuthorizeHousehold(ctx, "mallory", household.ID)).To(MatchError(ErrForbidden))
		})

		It("checks the role when roles are given", func() {
			Expect(service.AuthorizeHousehold(ctx, "alice", household.ID, RoleOwner, RoleAdmin)).To(Succeed())
			Expect(service.AuthorizeHousehold(ctx, "bob", household.ID, RoleOwner, RoleAdmin)).To(MatchError(ErrForbidden))
		})

		It("reports a missing household as not found", func() {
			Expect(service.AuthorizeHousehold(ctx, "mallory", "missing")).To(MatchError(ErrNotFound))
		})

		It("skips the check without a user", func() {
			Expect(service.AuthorizeHousehold(ctx, "", household.ID)).To(Succeed())
		})

		It("authorizes items through their household", func() {
			item, err := service.CreateItem(ctx, household.ID, "alice", ItemInput{Name: "Laptop", Quantity: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.AuthorizeItem(ctx, "bob", item.ID)).To(Succeed())
			Expect(service.AuthorizeItem(ctx, "mallory", item.ID)).To(MatchError(ErrForbidden))
			Expect(service.AuthorizeItem(ctx, "mallory", "missing")).To(MatchError(ErrNotFound))
		})

		When("the membership lookup fails", func() {
			BeforeEach(func() {
				db.getMemberErr = errors.New("disk error")
			})

			It("returns the error", func() {
				err := service.AuthorizeHousehold(ctx, "alice", household.ID)
				Expect(err).To(MatchError(ContainSubstring("checking membership: disk error")))
				Expect(err).NotTo(MatchError(ErrForbidden))
			})
		})
	})

	Describe("members", func() {
		var household *Household

		BeforeEach(func() {
			var err error
			household, err = service.CreateHousehold(ctx, "user-1", "Home", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SaveProfile(ctx, &Profile{UserID: "user-2", Email: "grace@example.com"})
			Expect(err).NotTo(HaveOccurred())
			timeSrc.advance(time.Minute)
		})

		Describe("AddMember", func() {
			It("adds the user with the given email as a member by default", func() {
				member, err := service.AddMember(ctx, household.ID, "GRACE@example.com", "")
				Expect(err).NotTo(HaveOccurred())
				Expect(member.UserID).To(Equal("user-2"))
				Expect(member.Role).To(Equal(RoleMember))
				Expect(publisher.types()).To(ContainElement("member_created"))
			})

			It("accepts the admin role", func() {
				member, err := service.AddMember(ctx, household.ID, "grace@example.com", RoleAdmin)
				Expect(err).NotTo(HaveOccurred())
				Expect(member.Role).To(Equal(RoleAdmin))
			})

			It("rejects the owner role", func() {
				_, err := service.AddMember(ctx, household.ID, "grace@example.com", RoleOwner)
				Expect(err).To(MatchError(ErrInvalidInput))
			})

			It("returns ErrAlreadyMember for an existing member", func() {
				_, err := service.AddMember(ctx, household.ID, "grace@example.com", "")
				Expect(err).NotTo(HaveOccurred())
				_, err = service.AddMember(ctx, household.ID, "grace@example.com", "")
				Expect(err).To(MatchError(ErrAlreadyMember))
			})

			It("returns ErrNotFound for an unknown email", func() {
				_, err := service.AddMember(ctx, household.ID, "nobody@example.com", "")
				Expect(err).To(MatchError(ErrNotFound))
			})

			It("returns ErrNotFound for a missing household", func() {
				_, err := service.AddMember(ctx, "nonexistent", "grace@example.com", "")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		Describe("RemoveMember", func() {
			BeforeEach(func() {
				_, err := service.AddMember(ctx, household.ID, "grace@example.com", "")
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes a member", func() {
				Expect(service.RemoveMember(ctx, household.ID, "user-2")).To(Succeed())
				members, err := service.ListMembers(ctx, household.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(members).To(HaveLen(1))
			})

			It("refuses to remove the owner", func() {
				Expect(service.RemoveMember(ctx, household.ID, "user-1")).To(MatchError(ErrInvalidInput))
			})

			It("returns ErrNotFound for a non-member", func() {
				Expect(service.RemoveMember(ctx, household.ID, "user-9")).To(MatchError(ErrNotFound))
			})
		})

		It("lists memberships across households", func() {
			_, err := service.CreateHousehold(ctx, "user-2", "Cabin", "")
			Expect(err).NotTo(HaveOccurred())

			all, err := service.ListAllMembers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})
	})

	Describe("SaveProfile", func() {
		It("sends the welcome email the first time an email is set", func() {
			_, err := service.SaveProfile(ctx, &Profile{UserID: "user-1", DisplayName: "Ada"})
			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.welcomed).To(BeEmpty())

			_, err = service.SaveProfile(ctx, &Profile{UserID: "user-1", DisplayName: "Ada", Email: " ada@example.com "})
			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.welcomed).To(Equal([]string{"ada@example.com"}))

			_, err = service.SaveProfile(ctx, &Profile{UserID: "user-1", DisplayName: "Ada L.", Email: "ada@example.com"})
			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.welcomed).To(HaveLen(1))
		})

		It("keeps the first creation time", func() {
			created, err := service.SaveProfile(ctx, &Profile{UserID: "user-1"})
			Expect(err).NotTo(HaveOccurred())
			timeSrc.advance(time.Hour)

			updated, err := service.SaveProfile(ctx, &Profile{UserID: "user-1", DisplayName: "Ada"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.CreatedAt).To(BeTemporally("==", created.CreatedAt))
			Expect(updated.UpdatedAt).To(BeTemporally("==", timeSrc.now))
		})

		It("does not fail when the welcome email fails", func() {
			notifier.welcomeErr = errors.New("smtp down")
			_, err := service.SaveProfile(ctx, &Profile{UserID: "user-1", Email: "ada@example.com"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires a user", func() {
			_, err := service.SaveProfile(ctx, &Profile{})
			Expect(err).To(MatchError(ErrInvalidInput))
		})

		It("surfaces lookup errors", func() {
			db.getProfileErr = errors.New("corrupt")
			_, err := service.SaveProfile(ctx, &Profile{UserID: "user-1"})
			Expect(err).To(MatchError(ContainSubstring("corrupt")))
		})
	})

	Describe("settings", func() {
		It("returns defaults when nothing is saved", func() {
			settings, err := service.GetSettings(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(settings).To(Equal(DefaultSettings("user-1")))
		})

		It("saves settings and fills blank theme and language", func() {
			_, err := service.SaveSettings(ctx, &Settings{UserID: "user-1", LowStockAlerts: true})
			Expect(err).NotTo(HaveOccurred())

			settings, err := service.GetSettings(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.LowStockAlerts).To(BeTrue())
			Expect(settings.ExpiryAlerts).To(BeFalse())
			Expect(settings.Theme).To(Equal("system"))
			Expect(settings.Language).To(Equal("en"))
		})

		It("requires a user", func() {
			_, err := service.SaveSettings(ctx, &Settings{})
			Expect(err).To(MatchError(ErrInvalidInput))
		})
	})

	Describe("notifications", func() {
		BeforeEach(func() {
			for i, n := range []*Notification{
				{ID: "n-1", UserID: "user-1", Type: NotificationLowStock, Title: "a", Message: "a"},
				{ID: "n-2", UserID: "user-1", Type: NotificationExpiry, Title: "b", Message: "b"},
				{ID: "n-3", UserID: "user-2", Type: NotificationSystem, Title: "c", Message: "c"},
			} {
				n.CreatedAt = timeSrc.now.Add(time.Duration(i) * time.Minute)
				Expect(db.SaveNotification(ctx, n)).To(Succeed())
			}
		})

		It("lists a user's notifications newest first", func() {
			list, err := service.ListNotifications(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal("n-2"))
			Expect(list[1].ID).To(Equal("n-1"))
		})

		It("marks one notification as read", func() {
			n, err := service.MarkNotificationRead(ctx, "user-1", "n-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Read).To(BeTrue())

			saved, err := db.GetNotification(ctx, "n-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Read).To(BeTrue())
		})

		It("hides another user's notification", func() {
			_, err := service.MarkNotificationRead(ctx, "user-1", "n-3")
			Expect(err).To(MatchError(ErrNotFound))
			Expect(service.DeleteNotification(ctx, "user-1", "n-3")).To(MatchError(ErrNotFound))
		})

		It("marks all unread notifications as read", func() {
			_, err := service.MarkNotificationRead(ctx, "user-1", "n-1")
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.MarkAllNotificationsRead(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal(1))

			other, err := db.GetNotification(ctx, "n-3")
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Read).To(BeFalse())
		})

		It("deletes a notification", func() {
			Expect(service.DeleteNotification(ctx, "user-1", "n-2")).To(Succeed())
			list, err := service.ListNotifications(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		When("saving fails", func() {
			BeforeEach(func() {
				db.saveNotificationErr = errors.New("readonly")
			})

			It("returns the error", func() {
				_, err := service.MarkAllNotificationsRead(ctx, "user-1")
				Expect(err).To(MatchError(ContainSubstring("readonly")))
			})
		})
	})
})
