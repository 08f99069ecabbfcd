package main

import (
	"os"

	ot "github.com/opentracing/opentracing-go"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	api "github.com/huddle-live/huddle-core/api"
	config "github.com/huddle-live/huddle-core/config"
	"github.com/huddle-live/huddle-core/db"
	janitor "github.com/huddle-live/huddle-core/janitor"
	"github.com/huddle-live/huddle-core/services"
	stats "github.com/huddle-live/huddle-core/stats"
)

func init() {
	log.SetLevel(log.DebugLevel)
}

func main() {

	app := cli.NewApp()
	app.Name = "huddled"
	app.Version = buildInfo["buildVersion"]
	app.Usage = "The primary back-end service for the Huddle platform"

	var configFile string

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config",
			Usage:       "Configuration file for huddled",
			Value:       "/etc/huddle/huddle-config.yml",
			Destination: &configFile,
		},
	}

	app.Action = func(c *cli.Context) error {

		log.Infof("huddled (%s) starting.", buildInfo["buildVersion"])

		config, err := config.LoadConfig(configFile)
		if err != nil {
			log.Fatalf("Failed to read configuration: %v", err)
		}

		tracer, closer := services.InitTracing(config.InstanceID)
		ot.SetGlobalTracer(tracer)
		defer closer.Close()

		// Initialize DataManager
		var adb db.DataManager
		switch config.Database.Driver {
		case "sqlite":
			adb, err = db.NewHDMSQLite(config.Database.Path)
			if err != nil {
				log.Fatalf("Failed to open sqlite data store: %v", err)
			}
		default:
			adb = db.NewHDMInMem()
		}

		nc, err := nats.Connect(config.NATSUrl)
		if err != nil {
			log.Fatal(err)
		}
		defer nc.Close()

		serviceMap := map[string]services.HuddleService{
			"api": &api.HuddleAPI{
				BuildInfo: buildInfo,
				Db:        adb,
				NC:        nc,
				Config:    config,
			},
			"janitor": &janitor.HuddleJanitor{
				Config: config,
				Db:     adb,
				NC:     nc,
			},
			"stats": &stats.HuddleStats{
				Config: config,
				Db:     adb,
				NC:     nc,
			},
		}

		for name, svc := range serviceMap {
			if !config.IsServiceEnabled(name) {
				log.Infof("Service %s is disabled, skipping.", name)
				continue
			}
			name, svc := name, svc
			go func() {
				if err := svc.Start(); err != nil {
					log.Fatalf("Problem starting %s service: %s", name, err)
				}
			}()
			log.Infof("Service %s started.", name)
		}

		// Wait forever
		ch := make(chan struct{})
		<-ch

		return nil
	}
	app.Run(os.Args)
}
