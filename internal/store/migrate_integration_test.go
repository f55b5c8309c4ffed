// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/storytable/storytable/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(migrator.Close()).To(Succeed()) })
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies every migration", func() {
		Expect(migrator.Up()).To(Succeed())

		st, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Version).To(Equal(uint(4)))
		Expect(st.Pending).To(BeEmpty())
		Expect(st.Dirty).To(BeFalse())
	})

	It("is idempotent", func() {
		Expect(migrator.Up()).To(Succeed())
	})

	It("steps down and back up", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(3)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(4)))
	})

	It("seeds the role catalog", func(ctx context.Context) {
		pool, err := store.Connect(ctx, dsn, store.DefaultRetryConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var count int
		Expect(pool.QueryRow(ctx, "SELECT count(*) FROM roles").Scan(&count)).To(Succeed())
		Expect(count).To(Equal(6))
	})

	It("reverts everything with Down", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})

	It("forces a version without running migrations", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Force(2)).To(Succeed())

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())

		Expect(migrator.Force(4)).To(Succeed())
	})
})
