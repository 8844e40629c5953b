package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	projectTypes = []string{"gradle-project", "maven-project"}
	languages    = []string{"java", "kotlin", "groovy"}
	packagings   = []string{"jar", "war"}
	javaVersions = []string{"17", "11", "1.8"}
)

const defaultJavaIndex = 1

func defaultProject() Project {
	return Project{
		Project:     projectTypes[0],
		Language:    languages[0],
		BootVersion: "2.6.4",
		Version:     "0.0.1-SNAPSHOT",
		Group:       "com.example",
		Artifact:    "demo",
		Name:        "demo",
		Description: "Demo project for Spring Boot",
		PackageName: "com.example.demo",
		Packaging:   packagings[0],
		JavaVersion: javaVersions[defaultJavaIndex],
	}
}

// runInitializrNew generates a project. Options missing from args are asked
// for interactively, in the order the flags are listed.
func runInitializrNew(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("initializr new", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var given Project
	fs.StringVar(&given.Path, "path", "", "Project directory")
	fs.StringVar(&given.Project, "project", "", "Project type")
	fs.StringVar(&given.Language, "language", "", "Language")
	fs.StringVar(&given.BootVersion, "boot-version", "", "Spring Boot version")
	fs.StringVar(&given.Version, "version", "", "Project version")
	fs.StringVar(&given.Group, "group", "", "Group id")
	fs.StringVar(&given.Artifact, "artifact", "", "Artifact id")
	fs.StringVar(&given.Name, "name", "", "Project name")
	fs.StringVar(&given.Description, "description", "", "Description")
	fs.StringVar(&given.PackageName, "package-name", "", "Root package")
	dependencies := fs.String("dependencies", "", "Comma separated dependency ids")
	fs.StringVar(&given.Packaging, "packaging", "", "Packaging")
	fs.StringVar(&given.JavaVersion, "java-version", "", "Java version")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dependenciesSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "dependencies" {
			dependenciesSet = true
		}
	})
	if dependenciesSet {
		given.Dependencies = splitDependencies(*dependencies)
	}

	project, err := completeProject(given, dependenciesSet, in, out)
	if err != nil {
		return err
	}
	if err := project.Validate(); err != nil {
		return err
	}
	if err := project.Generate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Project %s created in %s\r\n", project.Name, project.Path)
	return nil
}

func completeProject(given Project, dependenciesSet bool, in io.Reader, out io.Writer) (Project, error) {
	defaults := defaultProject()
	if given.complete() && dependenciesSet {
		return given, nil
	}

	restore := enterRawMode(in)
	defer restore()
	w := newWizard(in, out)

	steps := []struct {
		value *string
		ask   func() (string, error)
	}{
		{&given.Path, func() (string, error) { return w.Text("Path", "") }},
		{&given.Project, func() (string, error) { return w.Select("Project", projectTypes, 0) }},
		{&given.Language, func() (string, error) { return w.Select("Language", languages, 0) }},
		{&given.BootVersion, func() (string, error) { return w.Text("Spring Boot", defaults.BootVersion) }},
		{&given.Version, func() (string, error) { return w.Text("Version", defaults.Version) }},
		{&given.Group, func() (string, error) { return w.Text("Group", defaults.Group) }},
		{&given.Artifact, func() (string, error) { return w.Text("Artifact", defaults.Artifact) }},
		{&given.Name, func() (string, error) { return w.Text("Name", defaults.Name) }},
		{&given.Description, func() (string, error) { return w.Text("Description", defaults.Description) }},
		{&given.PackageName, func() (string, error) { return w.Text("Package Name", defaults.PackageName) }},
	}
	for _, step := range steps {
		if *step.value != "" {
			continue
		}
		answer, err := step.ask()
		if err != nil {
			return Project{}, err
		}
		*step.value = answer
	}
	if !dependenciesSet {
		answer, err := w.Text("Dependencies", "")
		if err != nil {
			return Project{}, err
		}
		given.Dependencies = splitDependencies(answer)
	}
	if given.Packaging == "" {
		answer, err := w.Select("Packaging", packagings, 0)
		if err != nil {
			return Project{}, err
		}
		given.Packaging = answer
	}
	if given.JavaVersion == "" {
		answer, err := w.Select("Java", javaVersions, defaultJavaIndex)
		if err != nil {
			return Project{}, err
		}
		given.JavaVersion = answer
	}
	if strings.TrimSpace(given.Path) == "" {
		return Project{}, errors.New("path is required")
	}
	return given, nil
}

func splitDependencies(value string) []string {
	var out []string
	for _, dep := range strings.Split(value, ",") {
		if dep = strings.TrimSpace(dep); dep != "" {
			out = append(out, dep)
		}
	}
	return out
}

// enterRawMode switches a terminal stdin to raw mode and returns the
// restore function. Other readers are left alone.
func enterRawMode(in io.Reader) func() {
	file, ok := in.(*os.File)
	if !ok {
		return func() {}
	}
	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}
	return func() {
		_ = term.Restore(fd, state)
	}
}
