// Command beanwire-client exercises invoke/lookup/discover against a
// running beanwire server target.
//
// Usage:
//
//	beanwire-client discover --target http://localhost:8080
//	beanwire-client invoke --target http://localhost:8080 --bean Echo --arg hello
//	beanwire-client lookup --target http://localhost:8080 --name greeting
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/beanwire/beanwire/beanclient"
	"github.com/beanwire/beanwire/namingclient"
	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/objectstream/gob"
	"github.com/beanwire/beanwire/observability"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "beanwire-client",
		Short: "beanwire component-invocation and naming client",
	}
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newInvokeCmd())
	root.AddCommand(newLookupCmd())
	return root
}

func streamFactory(registry *gob.Registry) func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream {
	return func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream {
		return gob.New(rw, registry, filter)
	}
}

func newDiscoverCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "list the module identifiers a server currently hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(target)
			if err != nil {
				return fmt.Errorf("parse target: %w", err)
			}
			registry := transport.NewRegistry(transport.Options{Logger: observability.NewZerologLogger("beanwire-client")})
			client := beanclient.New(beanclient.Options{
				Registry: registry,
				Streams:  beanclient.StreamFactory(streamFactory(gob.NewDefaultRegistry())),
			})
			ids, err := client.Discover(context.Background(), u)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "server base URI, e.g. http://localhost:8080")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newInvokeCmd() *cobra.Command {
	var target, app, module, distinct, bean, view, method, arg string
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "invoke a stateless bean method",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(target)
			if err != nil {
				return fmt.Errorf("parse target: %w", err)
			}
			registry := transport.NewRegistry(transport.Options{Logger: observability.NewZerologLogger("beanwire-client")})
			client := beanclient.New(beanclient.Options{
				Registry: registry,
				Streams:  beanclient.StreamFactory(streamFactory(gob.NewDefaultRegistry())),
			})
			result, err := client.Invoke(context.Background(), beanclient.Call{
				Target: u,
				Locator: protocol.BeanLocator{
					ID:   protocol.BeanID{App: app, Module: module, Distinct: distinct, Bean: bean},
					Kind: protocol.BeanKindStateless,
				},
				View:       view,
				Method:     method,
				ParamTypes: []string{"java.lang.String"},
				Args:       []any{arg},
			})
			if err != nil {
				return err
			}
			fmt.Println(result.Value)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "server base URI")
	cmd.Flags().StringVar(&app, "app", "demo", "application name")
	cmd.Flags().StringVar(&module, "module", "demo", "module name")
	cmd.Flags().StringVar(&distinct, "distinct", "", "distinct name")
	cmd.Flags().StringVar(&bean, "bean", "Echo", "bean name")
	cmd.Flags().StringVar(&view, "view", "Echo", "view class")
	cmd.Flags().StringVar(&method, "method", "echo", "method name")
	cmd.Flags().StringVar(&arg, "arg", "", "single string argument")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newLookupCmd() *cobra.Command {
	var target, name string
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "look up a name in the naming directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(target)
			if err != nil {
				return fmt.Errorf("parse target: %w", err)
			}
			registry := transport.NewRegistry(transport.Options{Logger: observability.NewZerologLogger("beanwire-client")})
			client := namingclient.New(namingclient.Options{
				Registry: registry,
				Streams:  namingclient.StreamFactory(streamFactory(namingRegistry())),
			})
			root := client.RootContext([]*url.URL{u})
			value, sub, err := root.Lookup(context.Background(), name)
			if err != nil {
				return err
			}
			if sub != nil {
				fmt.Println("sub-context")
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "server base URI")
	cmd.Flags().StringVar(&name, "name", "", "naming-context name to look up")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("name")
	return cmd
}

func namingRegistry() *gob.Registry {
	r := gob.NewDefaultRegistry()
	r.Register("name-class-pair-slice", []namingclient.NameClassPair(nil))
	r.Register("binding-slice", []namingclient.Binding(nil))
	return r
}
