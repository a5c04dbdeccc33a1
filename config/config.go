// Package config contains the schema of the DICE site configuration file and
// functions to load it.
package config

import (
	"io"
	"os"

	"github.com/imdario/mergo"
	pkgErrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the location of the site configuration on DICE hosts.
const DefaultPath = "/etc/dice/config.yaml"

// DefaultProtocol is the protocol assumed for storage entries which do not
// declare one.
const DefaultProtocol = "file://"

// ErrNotFound is returned by Load if the configuration file does not exist.
var ErrNotFound = pkgErrors.New("config file does not exist")

// Config is the structure of the DICE site configuration file.
type Config struct {
	ClusterName   string                 `yaml:"cluster_name"`
	Documentation string                 `yaml:"documentation"`
	LoginNodes    []LoginNode            `yaml:"login_nodes"`
	ComputingGrid ComputingGrid          `yaml:"computing_grid"`
	Storage       StorageMap             `yaml:"storage"`
	Glossary      map[string]string      `yaml:"glossary"`
	SiteInfo      map[string]interface{} `yaml:"site_info"`
	NodeInfo      map[string]interface{} `yaml:"node_info"`
}

// ComputingElement describes a grid job-execution resource.
type ComputingElement struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
	Type   string `yaml:"type"`
}

// StorageElement describes a grid storage resource.
type StorageElement struct {
	Name      string            `yaml:"name"`
	Status    string            `yaml:"status"`
	Type      string            `yaml:"type"`
	Endpoints map[string]string `yaml:"endpoints"`
	RootDir   string            `yaml:"root_dir"`
}

// ComputingGrid is the WLCG section of the configuration.
type ComputingGrid struct {
	SiteName          string             `yaml:"site_name"`
	CMSSiteName       string             `yaml:"cms_site_name"`
	ComputingElements []ComputingElement `yaml:"computing_elements"`
	StorageElements   []StorageElement   `yaml:"storage_elements"`
	FTSServers        []string           `yaml:"fts_servers"`
}

// Storage refers to a storage type, e.g. HDFS or NFS, and the paths at which
// it is mounted.
type Storage struct {
	Mounts   []string               `yaml:"mounts"`
	Binaries map[string]string      `yaml:"binaries"`
	Env      map[string]string      `yaml:"env"`
	Extras   map[string]interface{} `yaml:"extras"`
	// Protocol is the URI prefix paths below the mounts are rewritten to.
	Protocol string `yaml:"protocol"`
	// RemoveMountForNativeAccess strips the mount point from paths when they
	// are rewritten, e.g. /hdfs/user becomes hdfs:///user.
	RemoveMountForNativeAccess bool `yaml:"remove_mount_for_native_access"`
}

var defaultStorage = Storage{
	Protocol: DefaultProtocol,
}

// LoginNode describes an interactive node of the cluster.
type LoginNode struct {
	Name   string       `yaml:"name"`
	Status ServerStatus `yaml:"status"`
	Group  string       `yaml:"group"`
}

// Load opens and reads the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgErrors.Wrapf(ErrNotFound, "DICE config, %s, does not exist. Please contact dice-admin", path)
		}
		return nil, pkgErrors.Wrap(err, "config.Load")
	}
	defer f.Close()

	config, err := Read(f)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "config.Load: %s", path)
	}

	return config, nil
}

// Read decodes a configuration document from r and applies defaults.
func Read(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)

	config := &Config{}

	err := decoder.Decode(config)
	if err != nil && err != io.EOF {
		return nil, err
	}

	err = config.applyDefaults()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyDefaults() error {
	for _, name := range c.Storage.Names() {
		storage := c.Storage.Get(name)
		if err := mergo.Merge(storage, defaultStorage); err != nil {
			return pkgErrors.Wrapf(err, "apply defaults to storage %s", name)
		}
	}

	return nil
}

// GOCDBName returns the site name registered in GOCDB, used e.g. by the APEL
// accounting pages. site_info.gocdb_name takes precedence over
// computing_grid.site_name.
func (c *Config) GOCDBName() string {
	if name, ok := c.SiteInfo["gocdb_name"].(string); ok && len(name) > 0 {
		return name
	}
	return c.ComputingGrid.SiteName
}
