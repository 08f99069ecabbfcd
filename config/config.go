package config

import (
	"encoding/json"
	"errors"
	"io/ioutil"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// HuddleConfig holds all runtime options for huddled and its services.
type HuddleConfig struct {
	InstanceID string `yaml:"instanceId"`

	Tier     string `yaml:"tier"`
	HTTPPort int    `yaml:"httpPort"`
	NATSUrl  string `yaml:"natsUrl"`

	// AttendeeTTL is the number of seconds an attendee may go without
	// polling before the janitor reaps it. Should comfortably exceed the
	// client poll cadence (30s) to tolerate missed ticks.
	AttendeeTTL int `yaml:"attendeeTTL"`

	// JanitorInterval is the number of seconds between janitor sweeps.
	JanitorInterval int `yaml:"janitorInterval"`

	Database struct {
		// Driver selects the state store: "inmem" or "sqlite".
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"database"`

	Stats struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"stats"`

	DevMode bool `yaml:"devMode"`

	EnabledServices []string `yaml:"enabledServices"`
}

// LoadConfig reads huddled configuration from the given yaml file, applying
// defaults for anything the file doesn't set.
func LoadConfig(file string) (HuddleConfig, error) {

	// Set a new config with defaults set where relevant
	config := HuddleConfig{
		Tier:            "prod",
		HTTPPort:        8086,
		NATSUrl:         "nats://localhost:4222",
		AttendeeTTL:     120,
		JanitorInterval: 60,
		EnabledServices: []string{
			"api",
			"janitor",
			"stats",
		},
	}
	config.Database.Driver = "inmem"

	yamlDef, err := ioutil.ReadFile(file)
	if err != nil {
		return HuddleConfig{}, err
	}
	err = yaml.Unmarshal(yamlDef, &config)
	if err != nil {
		return HuddleConfig{}, err
	}

	if config.InstanceID == "" {
		config.InstanceID = uuid.New().String()
	}
	if config.Database.Driver == "sqlite" && config.Database.Path == "" {
		return HuddleConfig{}, errors.New("database.path must be set when using the sqlite driver")
	}

	log.Debugf("Huddle config: %s", config.JSON())

	return config, nil
}

func (c *HuddleConfig) JSON() string {
	configJSON, _ := json.Marshal(c)
	return string(configJSON)
}

// IsServiceEnabled checks the config for a given service name, and if included,
// returns true. Otherwise, returns false.
func (c *HuddleConfig) IsServiceEnabled(serviceName string) bool {
	for _, name := range c.EnabledServices {
		if name == serviceName {
			return true
		}
	}
	return false
}
