package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Xushengqwer/identity_link/models/dto"
)

var autoLinkDryRun bool

var autoLinkCmd = &cobra.Command{
	Use:   "autolink",
	Short: "按邮箱或手机号把未关联的本地用户关联到身份提供方用户",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := services.AutoLink.LinkAllUsers(cmd.Context(), dto.AutoLinkOptions{DryRun: autoLinkDryRun})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "列出同一本地用户的重复关联",
	RunE: func(cmd *cobra.Command, args []string) error {
		duplicates, err := services.LinkTable.FindDuplicates(cmd.Context())
		if err != nil {
			return err
		}
		if len(duplicates) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "没有重复关联")
			return nil
		}
		return printJSON(cmd, duplicates)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	autoLinkCmd.Flags().BoolVar(&autoLinkDryRun, "dry-run", false, "只输出匹配结果，不写入关联表")
	rootCmd.AddCommand(autoLinkCmd)
	rootCmd.AddCommand(duplicatesCmd)
}
