package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	cli "github.com/urfave/cli"

	client "github.com/huddle-live/huddle-core/client"
)

func main() {

	app := cli.NewApp()
	app.Name = "hudctl"
	app.Version = buildInfo["buildVersion"]
	app.Usage = "Admin/debug tool for the Huddle platform. Use at your own risk"
	var host, port string

	apiURL := func() string {
		return fmt.Sprintf("http://%s:%s", host, port)
	}

	// global level flags
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "H, host",
			Usage:       "huddled hostname",
			Value:       "127.0.0.1",
			Destination: &host,
		},
		cli.StringFlag{
			Name:        "P, port",
			Usage:       "huddled http port",
			Value:       "8086",
			Destination: &port,
		},
	}

	app.Commands = []cli.Command{
		{
			Name:    "session",
			Aliases: []string{},
			Usage:   "Work with Session resources",
			Subcommands: []cli.Command{
				{
					Name:  "list",
					Usage: "Retrieve all sessions",
					Action: func(c *cli.Context) {
						resp, err := http.Get(apiURL() + "/api/sessions")
						if err != nil {
							fmt.Println(err)
							os.Exit(1)
						}
						defer resp.Body.Close()

						var sessions []client.Session
						if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
							fmt.Println(err)
							os.Exit(1)
						}

						out, _ := json.MarshalIndent(sessions, "", "  ")
						fmt.Println(string(out))
					},
				},
				{
					Name:      "get",
					Usage:     "Retrieve a single session by ID",
					ArgsUsage: "<session-id>",
					Action: func(c *cli.Context) {
						sc := client.NewClient(apiURL(), c.Args().First(), "")
						session, err := sc.GetSession(context.Background())
						if err != nil {
							fmt.Println(err)
							os.Exit(1)
						}

						out, _ := json.MarshalIndent(session, "", "  ")
						fmt.Println(string(out))
					},
				},
				{
					Name:  "create",
					Usage: "Create a new session",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "name", Usage: "screen name of the session creator"},
						cli.StringFlag{Name: "vm", Usage: "address of the session's VM"},
					},
					Action: func(c *cli.Context) {
						body, _ := json.Marshal(map[string]string{
							"screenName": c.String("name"),
							"ipOfVM":     c.String("vm"),
						})
						resp, err := http.Post(apiURL()+"/api/sessions", "application/json", bytes.NewReader(body))
						if err != nil {
							fmt.Println(err)
							os.Exit(1)
						}
						defer resp.Body.Close()
						if resp.StatusCode != http.StatusCreated {
							color.Red("Failed to create session (status %d)", resp.StatusCode)
							os.Exit(1)
						}

						var session client.Session
						if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
							fmt.Println(err)
							os.Exit(1)
						}
						color.Green("Created session %s (VM %s, controller %s)",
							session.SessionID, session.IPOfVM, session.Controller)
					},
				},
				{
					Name:      "delete",
					Usage:     "Delete a session and all of its attendee records",
					ArgsUsage: "<session-id>",
					Action: func(c *cli.Context) {
						id := c.Args().First()
						if !askSimpleConfirm(fmt.Sprintf("Delete session %s? Attendees will be disconnected.", id)) {
							return
						}

						req, _ := http.NewRequest(http.MethodDelete,
							fmt.Sprintf("%s/api/session?session-id=%s", apiURL(), id), nil)
						resp, err := http.DefaultClient.Do(req)
						if err != nil {
							fmt.Println(err)
							os.Exit(1)
						}
						defer resp.Body.Close()
						if resp.StatusCode != http.StatusNoContent {
							color.Red("Failed to delete session (status %d)", resp.StatusCode)
							os.Exit(1)
						}
						color.Green("Deleted session %s", id)
					},
				},
				{
					Name:  "controller",
					Usage: "Hand control of a session to another attendee",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "id", Usage: "session ID"},
						cli.StringFlag{Name: "from", Usage: "current controller's screen name"},
						cli.StringFlag{Name: "to", Usage: "new controller's screen name"},
					},
					Action: func(c *cli.Context) {
						sc := client.NewClient(apiURL(), c.String("id"), c.String("from"))
						session, err := sc.ChangeControllerTo(context.Background(), c.String("to"))
						if err != nil {
							color.Red("%v", err)
							os.Exit(1)
						}
						color.Green("Controller of session %s is now %s", session.SessionID, session.Controller)
					},
				},
				{
					Name:  "watch",
					Usage: "Poll a session and print state changes as they happen",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "id", Usage: "session ID"},
						cli.StringFlag{Name: "name", Usage: "screen name to poll as"},
						cli.IntFlag{Name: "cadence", Usage: "seconds between refreshes", Value: 30},
					},
					Action: func(c *cli.Context) {
						sc := client.NewClient(apiURL(), c.String("id"), c.String("name"))
						cache := client.NewSessionCache(sc)
						cache.Cadence = time.Duration(c.Int("cadence")) * time.Second
						cache.Start()
						defer cache.Stop()

						for {
							session, err := cache.GetSession()
							if err != nil {
								color.Red("%v", err)
							} else {
								fmt.Printf("[%s] controller=%s attendees=%v\n",
									session.SessionID, color.GreenString(session.Controller),
									session.ListOfAttendees)
							}
							time.Sleep(cache.Cadence)
						}
					},
				},
			},
		},
		{
			Name:  "info",
			Usage: "Show build/version details of the connected huddled",
			Action: func(c *cli.Context) {
				resp, err := http.Get(apiURL() + "/api/info")
				if err != nil {
					fmt.Println(err)
					os.Exit(1)
				}
				defer resp.Body.Close()

				var info map[string]string
				if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
					fmt.Println(err)
					os.Exit(1)
				}
				out, _ := json.MarshalIndent(info, "", "  ")
				fmt.Println(string(out))
			},
		},
	}

	app.Run(os.Args)
}
