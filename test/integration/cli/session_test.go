// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

//go:build integration

package cli_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("Credential commands", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupDatabase(ctx, env.pool)

		up := run(ctx, "", "migrate", "up")
		Expect(up.exitCode).To(Equal(0), "migrate up failed: %s", up.stderr)
		Expect(up.stdout).To(ContainSubstring("Migrations completed successfully"))
	})

	Describe("migrate", func() {
		It("reports every migration as applied", func() {
			status := run(ctx, "", "migrate", "status")
			Expect(status.exitCode).To(Equal(0), status.stderr)
			Expect(status.stdout).To(ContainSubstring("pending: []"))
		})

		It("is idempotent", func() {
			again := run(ctx, "", "migrate", "up")
			Expect(again.exitCode).To(Equal(0), again.stderr)
		})
	})

	Describe("session lifecycle", func() {
		It("registers, verifies and revokes", func() {
			reg := decode(run(ctx, "integration password\n", "register", "--email", "Ana@Example.com", "--password-stdin"))
			Expect(reg.Success).To(BeTrue())
			Expect(reg.Token).NotTo(BeEmpty())

			var stored string
			Expect(env.pool.QueryRow(ctx, "SELECT email FROM identities").Scan(&stored)).To(Succeed())
			Expect(stored).To(Equal("ana@example.com"))

			verified := decode(run(ctx, "", "verify", reg.Token))
			Expect(verified.Identity).NotTo(BeNil())
			Expect(verified.Identity.Email).To(Equal("ana@example.com"))

			revoke := run(ctx, "", "revoke", verified.Identity.ID)
			Expect(revoke.exitCode).To(Equal(0), revoke.stderr)

			rejected := run(ctx, "", "verify", reg.Token)
			Expect(rejected.exitCode).To(Equal(1))
			Expect(decode(rejected).Reason).To(Equal("revoked"))

			login := decode(run(ctx, "integration password\n", "login", "--email", "ana@example.com", "--password-stdin"))
			Expect(login.Success).To(BeTrue())
			Expect(decode(run(ctx, "", "verify", login.Token)).Identity.Generation).To(Equal(int64(1)))
		})

		It("changes the password and invalidates older tokens", func() {
			reg := decode(run(ctx, "integration password\n", "register", "--email", "ben@example.com", "--password-stdin"))
			id := decode(run(ctx, "", "verify", reg.Token)).Identity.ID

			changed := decode(run(ctx, "integration password\nreplacement password\n", "passwd", "--id", id, "--password-stdin"))
			Expect(changed.Success).To(BeTrue())

			Expect(run(ctx, "", "verify", reg.Token).exitCode).To(Equal(1))
			Expect(run(ctx, "", "verify", changed.Token).exitCode).To(Equal(0))

			stale := run(ctx, "integration password\n", "login", "--email", "ben@example.com", "--password-stdin")
			Expect(stale.exitCode).To(Equal(1))
		})

		It("admits exactly one of several concurrent registrations", func() {
			const attempts = 5
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
			)
			for range attempts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					res := decode(run(ctx, "integration password\n", "register", "--email", "race@example.com", "--password-stdin"))
					mu.Lock()
					defer mu.Unlock()
					if res.Success {
						successes++
					} else {
						Expect(res.Message).To(Equal("Email is already registered"))
					}
				}()
			}
			wg.Wait()
			Expect(successes).To(Equal(1))

			var count int
			Expect(env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count)).To(Succeed())
			Expect(count).To(Equal(1))
		})
	})
})
