package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/emiyakirito/mime4j-go/header/field"
	"github.com/emiyakirito/mime4j-go/stream"
	"github.com/emiyakirito/mime4j-go/token"
)

var (
	headlessType string
	dumpBodies   bool
)

var walkCmd = &cobra.Command{
	Use:   "walk message",
	Short: "Prints the token stream produced by parsing a message",
	Args:  cobra.ExactArgs(1),
	Run:   RunWalk,
}

func init() {
	walkCmd.Flags().StringVar(&headlessType, "content-type", "",
		"parse the file as a headless entity with this forced Content-type, instead of a full message")
	walkCmd.Flags().BoolVar(&dumpBodies, "dump-bodies", false,
		"print the decoded bytes of each Body/Preamble/Epilogue token")
	rootCmd.AddCommand(walkCmd)
}

func RunWalk(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()

	var s *stream.Stream
	if headlessType != "" {
		s = stream.ParseHeadless(f, headlessType)
	} else {
		s = stream.Parse(f)
	}

	depth := 0
	for {
		t, err := s.Next()
		if err != nil {
			fmt.Fprintf(os.Stderr, "mimewalk: %v\n", err)
			break
		}

		switch t.Kind {
		case token.EndHeader, token.EndBodypart, token.EndMultipart, token.EndMessage:
			depth--
		}

		indent(depth, t.Kind)

		switch t.Kind {
		case token.Field:
			f := s.GetField()
			fmt.Printf("%s: %s\n", f.Name(), f.Unfolded())
			if v, ok, err := field.Structured(f); ok {
				if err != nil {
					fmt.Printf("    (structured: %v)\n", err)
				} else {
					fmt.Printf("    (structured: %#v)\n", v)
				}
			}
		case token.StartBodypart, token.StartMessage, token.StartMultipart:
			d := s.GetBodyDescriptor()
			fmt.Printf("(%s/%s)\n", d.MIMEType, d.MIMESubtype)
		case token.Body, token.Preamble, token.Epilogue, token.RawEntity:
			n, _ := io.Copy(dumpTarget(), s.GetInputStream())
			fmt.Printf("%d bytes\n", n)
		case token.EndOfStream:
			fmt.Println()
		default:
			fmt.Println()
		}

		switch t.Kind {
		case token.StartHeader, token.StartBodypart, token.StartMultipart, token.StartMessage:
			depth++
		}

		if t.Kind == token.EndOfStream {
			break
		}
	}

	for _, w := range s.Warnings() {
		fmt.Fprintf(os.Stderr, "mimewalk: warning: %s: %s\n", w.Kind, w.Message)
	}
}

func indent(depth int, k token.Kind) {
	for i := 0; i < depth; i++ {
		fmt.Print("  ")
	}
	fmt.Print(k, " ")
}

func dumpTarget() io.Writer {
	if dumpBodies {
		return os.Stdout
	}
	return io.Discard
}
