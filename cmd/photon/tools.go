package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/photon/pkg/photon/charset"
	"github.com/randalmurphal/photon/pkg/photon/color"
)

func newColorCmd() *cobra.Command {
	colorCmd := &cobra.Command{Use: "color", Short: "Color packing"}

	packCmd := &cobra.Command{
		Use:   "pack",
		Short: "Print the ARGB and RGBA packings of a hex color",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hex, _ := cmd.Flags().GetString("hex")
			alpha, _ := cmd.Flags().GetUint8("alpha")

			c, err := color.FromHex(hex, alpha)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s argb=0x%08x rgba=0x%08x\n", c, c.ARGB(), c.RGBA())
			return nil
		},
	}
	packCmd.Flags().String("hex", "#000000", "color as #rrggbb or #rgb")
	packCmd.Flags().Uint8("alpha", 0xff, "alpha channel")
	colorCmd.AddCommand(packCmd)

	return colorCmd
}

func newCharsetCmd() *cobra.Command {
	charsetCmd := &cobra.Command{Use: "charset", Short: "Codepoint conversion"}

	charsetCmd.AddCommand(&cobra.Command{
		Use:   "encode TEXT",
		Short: "Print the codepoints of TEXT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runes, err := charset.Decode([]byte(args[0]))
			if err != nil {
				return err
			}
			points := make([]string, len(runes))
			for i, r := range runes {
				points[i] = fmt.Sprintf("U+%04X", r)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(points, " "))
			return nil
		},
	})

	charsetCmd.AddCommand(&cobra.Command{
		Use:   "decode CODEPOINT...",
		Short: "Print the text for codepoints given as U+XXXX or hex",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf []byte
			for _, arg := range args {
				r, err := parseCodepoint(arg)
				if err != nil {
					return err
				}
				b, err := charset.EncodeRune(r)
				if err != nil {
					return err
				}
				buf = append(buf, b...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(buf))
			return nil
		},
	})

	charsetCmd.AddCommand(&cobra.Command{
		Use:   "set TEXT...",
		Short: "Print the distinct characters of TEXT in first-seen order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := charset.New()
			for _, arg := range args {
				runes, err := charset.Decode([]byte(arg))
				if err != nil {
					return err
				}
				set.Add(runes...)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", set.Len(), set)
			return nil
		},
	})

	return charsetCmd
}

func parseCodepoint(s string) (rune, error) {
	hex := strings.TrimPrefix(strings.ToUpper(s), "U+")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse codepoint %q: %w", s, err)
	}
	return rune(v), nil
}
