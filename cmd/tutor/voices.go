package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshucs12345/sprechen/internal/tutor"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voice registry and the preferred voice per profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg := cfg.VoiceRegistry()
		fmt.Fprintf(out, "Engine: %s\n\n", cfg.TTSEngine)
		for _, v := range reg.Voices() {
			fmt.Fprintf(out, "  %-24s %-22s %s\n", v.ID, v.Name, v.Lang)
		}
		fmt.Fprintln(out)
		for _, g := range []tutor.VoiceGender{tutor.VoiceFemale, tutor.VoiceMale} {
			if v, ok := reg.Prefer(tutor.Locale, string(g)); ok {
				fmt.Fprintf(out, "%s -> %s\n", g.Label(), v.ID)
			} else {
				fmt.Fprintf(out, "%s -> engine default\n", g.Label())
			}
		}
		return nil
	},
}
