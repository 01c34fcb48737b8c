package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"notification-hub/internal/model"
	"notification-hub/internal/notification"
	"notification-hub/internal/worker"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var event model.ProductEvent

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Deliver one product event to its subscribers and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			n, err := notification.Build(event)
			if err != nil {
				return err
			}

			reg, err := openRegistry(cmd.Context(), cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer reg.Close()

			sink, closeSink, err := openSink(cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer closeSink()

			d := worker.NewDispatcher(reg, cfg.RequestTimeoutDuration(), sink, ctx.logger)
			d.UserAgent = cfg.Dispatch.UserAgent
			d.MaxConcurrency = cfg.Dispatch.MaxConcurrency

			report, err := d.Publish(cmd.Context(), n.ProductType, n)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d deliveries failed", report.Failed, report.Attempted)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&event.ProductType, "type", "", "Product type (the topic)")
	cmd.Flags().StringVar(&event.ProductID, "id", "", "Product ID")
	cmd.Flags().StringVar(&event.ProductTitle, "title", "", "Product title")
	cmd.Flags().StringVar(&event.ProductURL, "url", "", "Product URL")
	cmd.Flags().StringVar(&event.Status, "status", model.StatusCreated, "Event status (CREATED, DELETED or PROMOTION)")
	return cmd
}

func renderReport(report model.Report) string {
	summary := fmt.Sprintf("Notification %s to %s: %d attempted, %d succeeded, %d failed\n",
		report.NotificationID, report.Topic, report.Attempted, report.Succeeded, report.Failed)
	if len(report.Results) == 0 {
		return summary
	}

	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		status := "-"
		if r.StatusCode > 0 {
			status = strconv.Itoa(r.StatusCode)
		}
		outcome := "ok"
		if !r.OK() {
			outcome = "failed"
			if r.Error != "" {
				outcome = r.Error
			}
		}
		rows = append(rows, []string{r.Subscriber.Name, r.Subscriber.URL, status, r.Duration.Round(time.Millisecond).String(), outcome})
	}
	return summary + renderTable([]string{"Name", "URL", "Status", "Duration", "Result"}, rows, 3, 4)
}
