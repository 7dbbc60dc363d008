package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"github.com/srg/bluegatt/internal/bledb"
	"github.com/srg/bluegatt/internal/objectdir"
	"github.com/srg/bluegatt/pkg/gatt"
	"golang.org/x/term"
)

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [profile.yaml]",
		Short: "Print the object tree a profile registers",
		Long: `Builds the GATT application of a profile against an in-memory bus and
prints every object path with its interface and properties. Nothing is sent
to bluetoothd.

Examples:
  # Show the tree with the configured root
  gattd tree heart-rate.yaml

  # Machine-readable output
  gattd tree heart-rate.yaml --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTree,
	}

	cmd.Flags().String("root", "", "Application root object path (overrides config)")
	cmd.Flags().Bool("json", false, "Print the managed objects as JSON")
	cmd.Flags().String("color", "auto", "Colorize output: auto, always or never")

	return cmd
}

// dryRunRegistrar accepts every application without a bus.
type dryRunRegistrar struct{}

func (dryRunRegistrar) RegisterApplication(context.Context, dbus.ObjectPath, map[string]dbus.Variant) error {
	return nil
}

func (dryRunRegistrar) UnregisterApplication(context.Context, dbus.ObjectPath) error {
	return nil
}

func runTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}
	decls, err := loadDeclarations(args, cfg)
	if err != nil {
		return err
	}
	useColor, err := colorEnabled(cmd)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	app, err := gatt.RegisterNew(cmd.Context(), objectdir.New(), dryRunRegistrar{}, cfg.RootPath, decls, gatt.WithLogger(logger))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeTreeJSON(cmd.OutOrStdout(), app.ManagedObjects())
	}
	writeTree(cmd.OutOrStdout(), app.Path(), app.ManagedObjects(), useColor)
	return nil
}

func colorEnabled(cmd *cobra.Command) (bool, error) {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := cmd.OutOrStdout().(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid color mode: %s (must be auto, always, or never)", mode)
	}
}

// writeTree prints one block per object, sorted by path:
//
//	/root/service0 [org.bluez.GattService1] Heart Rate
//	    Primary: true
func writeTree(w io.Writer, root dbus.ObjectPath, objects gatt.ManagedObjects, useColor bool) {
	pathColor := color.New(color.FgCyan, color.Bold)
	ifaceColor := color.New(color.FgYellow)
	nameColor := color.New(color.FgGreen)
	for _, c := range []*color.Color{pathColor, ifaceColor, nameColor} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	fmt.Fprintf(w, "%s %s\n", pathColor.Sprint(root), ifaceColor.Sprintf("[%s]", gatt.ObjectManagerInterface))

	paths := make([]dbus.ObjectPath, 0, len(objects))
	for p := range objects {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	for _, p := range paths {
		for _, iface := range sortedKeys(objects[p]) {
			props := objects[p][iface]
			line := fmt.Sprintf("%s %s", pathColor.Sprint(p), ifaceColor.Sprintf("[%s]", iface))
			if name := attributeName(iface, props); name != "" {
				line += " " + nameColor.Sprint(name)
			}
			fmt.Fprintln(w, line)
			for _, k := range sortedKeys(props) {
				fmt.Fprintf(w, "    %s: %s\n", k, formatValue(props[k].Value()))
			}
		}
	}
}

func writeTreeJSON(w io.Writer, objects gatt.ManagedObjects) error {
	out := make(map[dbus.ObjectPath]map[string]map[string]interface{}, len(objects))
	for p, ifaces := range objects {
		out[p] = make(map[string]map[string]interface{}, len(ifaces))
		for iface, props := range ifaces {
			m := make(map[string]interface{}, len(props))
			for k, v := range props {
				if b, ok := v.Value().([]byte); ok {
					m[k] = "hex:" + hex.EncodeToString(b)
					continue
				}
				m[k] = v.Value()
			}
			out[p][iface] = m
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func attributeName(iface string, props gatt.Properties) string {
	id, ok := props["UUID"].Value().(string)
	if !ok {
		return ""
	}
	switch iface {
	case gatt.ServiceInterface:
		return bledb.LookupService(id)
	case gatt.CharacteristicInterface:
		return bledb.LookupCharacteristic(id)
	case gatt.DescriptorInterface:
		return bledb.LookupDescriptor(id)
	}
	return ""
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case []byte:
		if len(x) == 0 {
			return "(empty)"
		}
		return "hex:" + hex.EncodeToString(x)
	case []string:
		return "[" + strings.Join(x, ", ") + "]"
	case []dbus.ObjectPath:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = string(p)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
