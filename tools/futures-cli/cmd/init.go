package cmd

import (
	"bytes"
	_ "embed"
	"os"
	"path"
	"text/template"

	"github.com/spf13/cobra"
)

var (
	pkg        string
	createMain bool
)

//go:embed future.tmpl
var futureTmpl string

//go:embed main.tmpl
var mainTmpl string

var tmpls = template.New("")

type tmplArgs struct {
	PackagePath string
	PackageName string
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the barebones structure of a futures application",
	Long: `Programs built on the futures module share a bit of initial boilerplate:
a future type with its Poll() method, an executor to drive it, and a stopper
wired up through the cancel package. This command creates that boilerplate in
a single go. For example, to create the structure including "main.go":

	cd <your main directory>
	futures-cli init -m -p "<the path to main directory + future package name>"
	go mod init <path> // if needed
	go mod tidy
	go fmt ./...

If I was in the "test" directory and ran the following, this would be my outcome:

	futures-cli init -m -p "github.com/johnsiilver/test/myfuture"

	This will leave the following structure in that directory:
	.
	├── go.mod
	├── go.sum
	├── main.go
	└── myfuture
		└── myfuture.go

The above program will be runable.

If you do not need a main.go, you can simply remove the "-m" from the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tArgs := tmplArgs{
			PackagePath: pkg,
			PackageName: path.Base(pkg),
		}

		futureBuff := &bytes.Buffer{}
		mainBuff := &bytes.Buffer{}

		if err := tmpls.ExecuteTemplate(futureBuff, "future", tArgs); err != nil {
			return err
		}
		if err := tmpls.ExecuteTemplate(mainBuff, "main", tArgs); err != nil {
			return err
		}

		if err := os.Mkdir(path.Base(tArgs.PackagePath), 0o700); err != nil {
			return err
		}

		if createMain {
			if err := os.WriteFile("main.go", mainBuff.Bytes(), 0o600); err != nil {
				return err
			}
		}

		if err := os.Chdir(path.Base(tArgs.PackagePath)); err != nil {
			return err
		}

		if err := os.WriteFile(path.Base(tArgs.PackagePath)+".go", futureBuff.Bytes(), 0o600); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	template.Must(tmpls.New("future").Parse(futureTmpl))
	template.Must(tmpls.New("main").Parse(mainTmpl))

	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&pkg, "pkg", "p", "", "The package you wish to create")
	initCmd.Flags().BoolVarP(&createMain, "createMain", "m", false, "Create a main file that calls the package")
	initCmd.MarkFlagRequired("pkg")
}
