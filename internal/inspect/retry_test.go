/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package inspect

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("retry", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		config RetryConfig
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		config = RetryConfig{
			MaxRetries:      3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
		}
	})

	AfterEach(func() {
		cancel()
	})

	It("returns after one attempt on success", func() {
		attempts, err := retry(ctx, config, func(context.Context) error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(1))
	})

	It("retries transient errors until the instance answers", func() {
		calls := 0
		attempts, err := retry(ctx, config, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(3))
	})

	It("gives up after MaxRetries", func() {
		attempts, err := retry(ctx, config, func(context.Context) error {
			return errors.New("FATAL: the database system is starting up")
		})
		Expect(err).To(MatchError(ContainSubstring("starting up")))
		Expect(attempts).To(Equal(4))
	})

	It("does not retry permanent errors", func() {
		attempts, err := retry(ctx, config, func(context.Context) error {
			return errors.New("password authentication failed for user \"admin\"")
		})
		Expect(err).To(HaveOccurred())
		Expect(attempts).To(Equal(1))
	})

	It("stops waiting when the context is cancelled", func() {
		config.InitialInterval = time.Minute
		config.MaxInterval = time.Minute
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		attempts, err := retry(ctx, config, func(context.Context) error {
			return errors.New("i/o timeout")
		})
		Expect(err).To(MatchError(context.Canceled))
		Expect(attempts).To(Equal(1))
	})

	DescribeTable("isTransient",
		func(err error, want bool) {
			Expect(isTransient(err)).To(Equal(want))
		},
		Entry("nil", nil, false),
		Entry("refused", errors.New("Connection Refused"), true),
		Entry("too many connections", errors.New("Error 1040: Too many connections"), true),
		Entry("postgres not accepting", errors.New("not currently accepting connections"), true),
		Entry("unknown database", errors.New("Error 1049: Unknown database 'x'"), false),
		Entry("bad password", errors.New("access denied for user"), false),
	)
})
