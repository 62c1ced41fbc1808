// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package converge_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/esplugin/internal/converge"
	"github.com/holomush/esplugin/internal/converge/convergetest"
	"github.com/holomush/esplugin/internal/plugin"
)

func executorFor(home *convergetest.Home, esVersion string) *converge.Executor {
	return converge.New(converge.Config{
		HomeDir:          home.Dir,
		PluginDir:        home.PluginDir(),
		PluginTool:       home.PluginTool(),
		LegacyPluginTool: home.LegacyPluginTool(),
		ESBinary:         home.ESBinary(),
		Version:          esVersion,
		Attempts:         3,
		RetryDelay:       10 * time.Millisecond,
	})
}

var _ = Describe("Plugin convergence", func() {
	var (
		ctx  context.Context
		home *convergetest.Home
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		home, err = convergetest.NewHome(GinkgoT().TempDir(), "5.6.3")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("declared manifest", func() {
		It("installs missing plugins and removes absent ones", func() {
			Expect(home.AddPlugin("repository-hdfs", "5.6.3")).To(Succeed())

			manifest, err := plugin.ParseManifest([]byte(`
plugins:
  - name: analysis-icu
  - name: ingest-geoip
  - name: repository-hdfs
    ensure: absent
`))
			Expect(err).NotTo(HaveOccurred())

			results, err := executorFor(home, "5.6.3").Converge(ctx, manifest.Plugins)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))

			installed, err := plugin.NewRegistry(home.PluginDir()).List(ctx)
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(installed))
			for _, d := range installed {
				names = append(names, d.Name)
			}
			Expect(names).To(ConsistOf("analysis-icu", "ingest-geoip"))

			Expect(manifest.Plugins[0].Installed()).To(BeTrue())
			Expect(manifest.Plugins[2].Installed()).To(BeFalse())
		})

		It("is idempotent across runs", func() {
			desired := func() []*plugin.DesiredState {
				return []*plugin.DesiredState{{Name: "analysis-icu"}}
			}

			exec := executorFor(home, "5.6.3")
			_, err := exec.Converge(ctx, desired())
			Expect(err).NotTo(HaveOccurred())

			results, err := exec.Converge(ctx, desired())
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Action).To(Equal(converge.ActionNone))

			calls, err := home.Invocations()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(1))
		})
	})

	Describe("install retries", func() {
		It("succeeds when a later attempt works", func() {
			Expect(home.FailInstalls(2)).To(Succeed())

			results, err := executorFor(home, "5.6.3").Converge(ctx,
				[]*plugin.DesiredState{{Name: "analysis-icu"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Attempts).To(Equal(3))
			Expect(results[0].Ensure).To(Equal(plugin.EnsurePresent))
		})

		It("gives up after the configured attempts and continues", func() {
			Expect(home.FailInstalls(3)).To(Succeed())

			results, err := executorFor(home, "5.6.3").Converge(ctx, []*plugin.DesiredState{
				{Name: "analysis-icu"},
				{Name: "ingest-geoip"},
			})
			Expect(err).To(MatchError(ContainSubstring("after 3 attempts")))
			Expect(results).To(HaveLen(2))
			Expect(results[0].Err).To(HaveOccurred())
			Expect(results[1].Err).NotTo(HaveOccurred())
			Expect(filepath.Join(home.PluginDir(), "ingest-geoip")).To(BeADirectory())
		})
	})

	Describe("version eras", func() {
		It("passes configuration through ES_JAVA_OPTS before 2.0", func() {
			results, err := executorFor(home, "1.7.5").Converge(ctx, []*plugin.DesiredState{{
				Name:      "analysis-icu",
				ConfigDir: "/etc/elasticsearch",
				Proxy:     "http://proxy.example.org",
			}})
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Action).To(Equal(converge.ActionInstall))

			calls, err := home.Invocations()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Args).To(Equal("install analysis-icu"))
			Expect(calls[0].JavaOpts).To(Equal(
				"-Des.path.conf=/etc/elasticsearch -Dhttp.proxyHost=proxy.example.org -Dhttp.proxyPort=80" +
					" -Dhttps.proxyHost=proxy.example.org -Dhttps.proxyPort=80"))
		})

		It("probes the elasticsearch binary when no version is configured", func() {
			Expect(os.Remove(home.LegacyPluginTool())).To(Succeed())

			_, err := executorFor(home, "").Converge(ctx, []*plugin.DesiredState{{Name: "analysis-icu"}})
			Expect(err).NotTo(HaveOccurred())

			calls, err := home.Invocations()
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Args).To(HavePrefix("-Des.path.conf="))
		})
	})

	It("leaves the process environment untouched", func() {
		GinkgoT().Setenv("ES_JAVA_OPTS", "-Xmx1g")

		_, err := executorFor(home, "1.7.5").Converge(ctx, []*plugin.DesiredState{{Name: "analysis-icu"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Getenv("ES_JAVA_OPTS")).To(Equal("-Xmx1g"))
	})
})
