package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var retentionDays int

var cleanupActivityCmd = &cobra.Command{
	Use:   "cleanup-activity",
	Short: "删除过期的审计日志，配置了 COS 归档时先上传",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := retentionDays
		if days <= 0 {
			days = appDeps.Config.ActivityConfig.RetentionDays
		}
		if days <= 0 {
			return fmt.Errorf("未指定保留天数：使用 --retention-days 或配置 activityConfig.retention_days")
		}
		deleted, err := services.Activity.Cleanup(cmd.Context(), days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已删除 %d 条早于 %d 天的审计日志\n", deleted, days)
		return nil
	},
}

func init() {
	cleanupActivityCmd.Flags().IntVar(&retentionDays, "retention-days", 0, "保留天数，默认取配置")
	rootCmd.AddCommand(cleanupActivityCmd)
}
