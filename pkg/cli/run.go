package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uipilot/pkg/logger"
	"github.com/devicelab-dev/uipilot/pkg/session"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Execute instructions against a device in one shot",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "instruction",
			Aliases: []string{"i"},
			Usage:   "Instruction to execute (repeatable, in order)",
		},
		&cli.StringSliceFlag{
			Name:  "assert",
			Usage: "Condition to verify after the instructions (repeatable)",
		},
	},
	Action: func(c *cli.Context) error {
		instructions := c.StringSlice("instruction")
		assertions := c.StringSlice("assert")
		if len(instructions) == 0 && len(assertions) == 0 {
			return fmt.Errorf("nothing to do: pass at least one --instruction or --assert")
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		defer logger.Close()

		controller, disconnect, err := buildController(cfg)
		if err != nil {
			return err
		}
		defer disconnect()

		if _, err := controller.StartSession(); err != nil {
			return err
		}

		ctx := context.Background()
		status := session.StatusSuccess

		for _, instruction := range instructions {
			step, err := controller.Execute(ctx, instruction)
			if err != nil {
				fmt.Printf("FAIL  %s: %v\n", instruction, err)
				status = session.StatusFailure
				break
			}
			fmt.Printf("OK    %s -> %s via %s\n", instruction, step.ActionType, step.Method)
		}

		if status == session.StatusSuccess {
			for _, condition := range assertions {
				if controller.Assert(ctx, condition) {
					fmt.Printf("PASS  %s\n", condition)
				} else {
					fmt.Printf("FAIL  %s\n", condition)
					status = session.StatusFailure
				}
			}
		}

		sess, err := controller.StopSession(status)
		if err != nil {
			return err
		}
		fmt.Printf("session %s: %s (%d steps, %d verifications, %d ms)\n",
			sess.ID, sess.Status, len(sess.Steps), len(sess.Verifications), sess.DurationMs)

		if !sess.Success {
			return fmt.Errorf("run finished with status %s", sess.Status)
		}
		return nil
	},
}
