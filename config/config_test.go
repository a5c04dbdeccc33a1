package config_test

import (
	"errors"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	. "github.com/uob-dice/dice-lib/config"
)

const testConfigPath = "testdata/config.yaml"

var _ = Describe("Load", func() {
	It("should load the full configuration", func() {
		config, err := Load(testConfigPath)
		Ω(err).ShouldNot(HaveOccurred())

		Ω(config.ClusterName).Should(Equal("DICE"))
		Ω(config.ComputingGrid.SiteName).Should(Equal("UKI-SOUTHGRID-BRIS-HEP"))
		Ω(config.ComputingGrid.CMSSiteName).Should(Equal("T2_UK_SGrid_Bristol"))
		Ω(config.ComputingGrid.ComputingElements).Should(HaveLen(2))
		Ω(config.ComputingGrid.StorageElements).Should(HaveLen(2))
		Ω(config.ComputingGrid.FTSServers).Should(HaveLen(2))
		Ω(config.ComputingGrid.StorageElements[0].Endpoints).Should(Equal(map[string]string{
			"gsiftp": "gsiftp://lcgse01.phy.bris.ac.uk:2811",
			"xrootd": "root://lcgse01.phy.bris.ac.uk/",
		}))
		Ω(config.ComputingGrid.StorageElements[0].RootDir).Should(Equal("/dpm/phy.bris.ac.uk/home"))

		Ω(config.SiteInfo["supported_vos"]).Should(HaveLen(13))
		Ω(config.NodeInfo["owner"]).Should(Equal("ME"))
	})

	It("should decode login node statuses", func() {
		config, err := Load(testConfigPath)
		Ω(err).ShouldNot(HaveOccurred())

		Ω(config.LoginNodes).Should(HaveLen(4))
		for _, node := range config.LoginNodes {
			Ω(node.Status).Should(BeElementOf(StatusOnline, StatusOffline))
		}
	})

	It("should keep storage entries in document order and apply defaults", func() {
		config, err := Load(testConfigPath)
		Ω(err).ShouldNot(HaveOccurred())

		Ω(config.Storage.Names()).Should(Equal([]string{"hdfs", "software", "local"}))

		hdfs := config.Storage.Get("hdfs")
		Ω(hdfs.Protocol).Should(Equal("hdfs://"))
		Ω(hdfs.RemoveMountForNativeAccess).Should(BeTrue())
		Ω(hdfs.Binaries).Should(HaveKeyWithValue("hadoop", "/usr/bin/hadoop"))

		local := config.Storage.Get("local")
		Ω(local.Mounts).Should(Equal([]string{"/storage", "/scratch"}))
		Ω(local.Protocol).Should(Equal(DefaultProtocol))
		Ω(local.RemoveMountForNativeAccess).Should(BeFalse())

		for _, name := range config.Storage.Names() {
			Ω(len(config.Storage.Get(name).Mounts)).Should(BeNumerically(">=", 1))
		}
	})

	It("should return ErrNotFound for missing files", func() {
		_, err := Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Ω(errors.Is(err, ErrNotFound)).Should(BeTrue())
		Ω(err.Error()).Should(ContainSubstring("Please contact dice-admin"))
	})
})

var _ = Describe("Read", func() {
	It("should reject unknown server statuses", func() {
		_, err := Read(strings.NewReader("login_nodes:\n  - name: a\n    status: sleeping\n"))
		Ω(err).Should(HaveOccurred())
		Ω(err.Error()).Should(ContainSubstring("sleeping"))
	})

	It("should accept an empty document", func() {
		config, err := Read(strings.NewReader(""))
		Ω(err).ShouldNot(HaveOccurred())
		Ω(config.Storage.Len()).Should(Equal(0))
	})

	It("should reject a storage section which is not a mapping", func() {
		_, err := Read(strings.NewReader("storage:\n  - a\n"))
		Ω(err).Should(HaveOccurred())
	})
})

var _ = Describe("StorageMap", func() {
	It("should keep the position of replaced entries", func() {
		storageMap := NewStorageMap()
		storageMap.Set("a", &Storage{Protocol: "x://"})
		storageMap.Set("b", &Storage{})
		storageMap.Set("a", &Storage{Protocol: "y://"})

		Ω(storageMap.Names()).Should(Equal([]string{"a", "b"}))
		Ω(storageMap.Get("a").Protocol).Should(Equal("y://"))
		Ω(storageMap.Get("c")).Should(BeNil())
	})

	It("should marshal in document order", func() {
		config, err := Load(testConfigPath)
		Ω(err).ShouldNot(HaveOccurred())

		out, err := yaml.Marshal(&config.Storage)
		Ω(err).ShouldNot(HaveOccurred())

		text := string(out)
		Ω(strings.Index(text, "hdfs:")).Should(BeNumerically("<", strings.Index(text, "software:")))
		Ω(strings.Index(text, "software:")).Should(BeNumerically("<", strings.Index(text, "local:")))
	})
})

var _ = Describe("GOCDBName", func() {
	It("should prefer site_info.gocdb_name", func() {
		config, err := Read(strings.NewReader("computing_grid:\n  site_name: A\nsite_info:\n  gocdb_name: B\n"))
		Ω(err).ShouldNot(HaveOccurred())
		Ω(config.GOCDBName()).Should(Equal("B"))
	})

	It("should fall back to the computing grid site name", func() {
		config, err := Read(strings.NewReader("computing_grid:\n  site_name: A\n"))
		Ω(err).ShouldNot(HaveOccurred())
		Ω(config.GOCDBName()).Should(Equal("A"))
	})
})

var _ = Describe("ParseServerStatus", func() {
	It("should parse all statuses", func() {
		for _, raw := range []string{"online", "offline", "active", "retired", "commissioning", "decommissioning"} {
			status, err := ParseServerStatus(raw)
			Ω(err).ShouldNot(HaveOccurred())
			Ω(string(status)).Should(Equal(raw))
		}
	})
})
