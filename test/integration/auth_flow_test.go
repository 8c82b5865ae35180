// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

//go:build integration

package integration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/driftfile/driftfile/internal/auth"
	authpg "github.com/driftfile/driftfile/internal/auth/postgres"
	"github.com/driftfile/driftfile/internal/store"
	"github.com/driftfile/driftfile/pkg/errutil"
)

// captureSender records delivered codes by email instead of mailing them.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func newCaptureSender() *captureSender {
	return &captureSender{codes: make(map[string]string)}
}

func (c *captureSender) SendCode(_ context.Context, email, _, code string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	return nil
}

func (c *captureSender) lastCode(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

var _ = Describe("Passwordless authentication", Ordered, func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		container *postgres.PostgresContainer
		pool      interface{ Close() }
		sender    *captureSender
		flow      *auth.Flow
		client    = auth.Client{UserAgent: "integration-test", IPAddress: "127.0.0.1"}
	)

	BeforeAll(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Minute)

		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("driftfile_test"),
			postgres.WithUsername("driftfile"),
			postgres.WithPassword("driftfile"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		dbPool, err := store.Connect(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		pool = dbPool

		sender = newCaptureSender()

		registry, err := auth.NewRegistry(authpg.NewAccountRepository(dbPool))
		Expect(err).NotTo(HaveOccurred())

		otp, err := auth.NewOTPService(authpg.NewCodeRepository(dbPool), sender, auth.OTPConfig{
			CodeTTL:           10 * time.Minute,
			ResendCooldown:    time.Minute,
			MaxVerifyAttempts: 3,
		})
		Expect(err).NotTo(HaveOccurred())

		sessions, err := auth.NewSessionService(
			authpg.NewAccountRepository(dbPool),
			authpg.NewSessionRepository(dbPool),
			24*time.Hour,
			slog.Default(),
		)
		Expect(err).NotTo(HaveOccurred())

		flow, err = auth.NewFlow(registry, otp, sessions)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			Expect(container.Terminate(context.Background())).To(Succeed())
		}
		cancel()
	})

	Describe("sign-up", func() {
		It("creates an account, delivers a code and lands a student on /student", func() {
			pending, err := flow.SignUp(ctx, "ada@university.edu", "Ada Lovelace", auth.RoleStudent)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending.Email).To(Equal("ada@university.edu"))

			code := sender.lastCode("ada@university.edu")
			Expect(code).To(HaveLen(6))

			result, err := flow.SubmitCode(ctx, pending.AccountID, code, client)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Redirect).To(Equal(auth.RedirectStudentHome))
			Expect(result.Token).To(HaveLen(64))
			Expect(result.Account.Role).To(Equal(auth.RoleStudent))

			account := flow.WhoAmI(ctx, result.Token)
			Expect(account).NotTo(BeNil())
			Expect(account.Email).To(Equal("ada@university.edu"))
		})

		It("refuses a second account for the same email", func() {
			_, err := flow.SignUp(ctx, "ada@university.edu", "Another Ada", auth.RoleStandard)
			Expect(err).To(HaveOccurred())
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_DUPLICATE_ACCOUNT"))
		})

		It("treats email case-insensitively for duplicates", func() {
			_, err := flow.SignUp(ctx, "ADA@University.EDU", "Shouting Ada", auth.RoleStandard)
			Expect(err).To(HaveOccurred())
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_DUPLICATE_ACCOUNT"))
		})
	})

	Describe("sign-in", func() {
		It("lands a standard account on /", func() {
			pending, err := flow.SignUp(ctx, "grace@example.com", "Grace Hopper", auth.RoleStandard)
			Expect(err).NotTo(HaveOccurred())

			result, err := flow.SubmitCode(ctx, pending.AccountID, sender.lastCode("grace@example.com"), client)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Redirect).To(Equal(auth.RedirectHome))

			// Sign in again on the existing account.
			pending, err = flow.SignIn(ctx, "grace@example.com")
			Expect(err).NotTo(HaveOccurred())

			result, err = flow.SubmitCode(ctx, pending.AccountID, sender.lastCode("grace@example.com"), client)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Redirect).To(Equal(auth.RedirectHome))
		})

		It("refuses an unknown email before issuing anything", func() {
			_, err := flow.SignIn(ctx, "nobody@example.com")
			Expect(err).To(HaveOccurred())
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_UNKNOWN_ACCOUNT"))
		})

		It("throttles a resend inside the cooldown window", func() {
			pending, err := flow.SignIn(ctx, "grace@example.com")
			Expect(err).NotTo(HaveOccurred())

			err = flow.ResendCode(ctx, pending.AccountID)
			Expect(err).To(HaveOccurred())
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_RESEND_THROTTLED"))
		})
	})

	Describe("code verification", func() {
		It("keeps the flow re-enterable after a wrong code", func() {
			pending, err := flow.SignUp(ctx, "alan@example.com", "Alan Turing", auth.RoleStandard)
			Expect(err).NotTo(HaveOccurred())

			_, err = flow.SubmitCode(ctx, pending.AccountID, "000000", client)
			Expect(err).To(HaveOccurred())
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_CODE_INVALID"))

			result, err := flow.SubmitCode(ctx, pending.AccountID, sender.lastCode("alan@example.com"), client)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Session).NotTo(BeNil())
		})

		It("refuses the correct code after the attempt cap", func() {
			pending, err := flow.SignUp(ctx, "capped@example.com", "Capped User", auth.RoleStandard)
			Expect(err).NotTo(HaveOccurred())

			for range 3 {
				_, err = flow.SubmitCode(ctx, pending.AccountID, "000000", client)
				Expect(err).To(HaveOccurred())
			}

			_, err = flow.SubmitCode(ctx, pending.AccountID, sender.lastCode("capped@example.com"), client)
			Expect(err).To(HaveOccurred())
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_CODE_INVALID"))
		})

		It("refuses a consumed code on replay", func() {
			pending, err := flow.SignUp(ctx, "replay@example.com", "Replay User", auth.RoleStandard)
			Expect(err).NotTo(HaveOccurred())

			code := sender.lastCode("replay@example.com")
			_, err = flow.SubmitCode(ctx, pending.AccountID, code, client)
			Expect(err).NotTo(HaveOccurred())

			_, err = flow.SubmitCode(ctx, pending.AccountID, code, client)
			Expect(err).To(HaveOccurred())
			Expect(errutil.ErrorCode(err)).To(Equal("AUTH_CODE_INVALID"))
		})
	})

	Describe("sessions", func() {
		It("revokes a session on sign-out", func() {
			pending, err := flow.SignUp(ctx, "leaver@example.com", "Leaver User", auth.RoleStandard)
			Expect(err).NotTo(HaveOccurred())

			result, err := flow.SubmitCode(ctx, pending.AccountID, sender.lastCode("leaver@example.com"), client)
			Expect(err).NotTo(HaveOccurred())
			Expect(flow.WhoAmI(ctx, result.Token)).NotTo(BeNil())

			Expect(flow.SignOut(ctx, result.Token)).To(Succeed())
			Expect(flow.WhoAmI(ctx, result.Token)).To(BeNil())
		})

		It("resolves an unknown token to no account", func() {
			Expect(flow.WhoAmI(ctx, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")).To(BeNil())
		})
	})
})
