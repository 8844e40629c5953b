package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"unicode"
)

// Project is the answered set of initializr options.
type Project struct {
	Path         string
	Project      string
	Language     string
	BootVersion  string
	Version      string
	Group        string
	Artifact     string
	Name         string
	Description  string
	PackageName  string
	Dependencies []string
	Packaging    string
	JavaVersion  string
}

func (p Project) complete() bool {
	for _, value := range []string{
		p.Path, p.Project, p.Language, p.BootVersion, p.Version, p.Group,
		p.Artifact, p.Name, p.Description, p.PackageName, p.Packaging, p.JavaVersion,
	} {
		if value == "" {
			return false
		}
	}
	return true
}

func (p *Project) Validate() error {
	p.Language = strings.ToLower(p.Language)
	var errs []error
	if !slices.Contains(projectTypes, p.Project) {
		errs = append(errs, fmt.Errorf("unknown project type %q", p.Project))
	}
	if !slices.Contains(languages, p.Language) {
		errs = append(errs, fmt.Errorf("unknown language %q", p.Language))
	}
	if !slices.Contains(packagings, p.Packaging) {
		errs = append(errs, fmt.Errorf("unknown packaging %q", p.Packaging))
	}
	if !slices.Contains(javaVersions, p.JavaVersion) {
		errs = append(errs, fmt.Errorf("unsupported java version %q", p.JavaVersion))
	}
	if strings.TrimSpace(p.Path) == "" {
		errs = append(errs, errors.New("path is required"))
	}
	return errors.Join(errs...)
}

func (p Project) ApplicationClass() string {
	runes := []rune(p.Name)
	var b strings.Builder
	upper := true
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		b.WriteString("Demo")
	}
	return b.String() + "Application"
}

func (p Project) sourceExt() string {
	switch p.Language {
	case "kotlin":
		return "kt"
	case "groovy":
		return "groovy"
	default:
		return "java"
	}
}

// Generate writes the build file and application class under Path.
func (p Project) Generate() error {
	if err := os.MkdirAll(p.Path, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}

	buildFile, buildTemplate := "build.gradle", gradleTemplate
	if p.Project == "maven-project" {
		buildFile, buildTemplate = "pom.xml", pomTemplate
	}
	if err := renderTo(filepath.Join(p.Path, buildFile), buildTemplate, p); err != nil {
		return err
	}
	if p.Project == "gradle-project" {
		if err := renderTo(filepath.Join(p.Path, "settings.gradle"), settingsTemplate, p); err != nil {
			return err
		}
	}

	sourceDir := filepath.Join(append([]string{p.Path, "src", "main", p.Language}, strings.Split(p.PackageName, ".")...)...)
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	sourceFile := filepath.Join(sourceDir, p.ApplicationClass()+"."+p.sourceExt())
	return renderTo(sourceFile, applicationTemplate, p)
}

func renderTo(path string, tmpl *template.Template, p Project) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := tmpl.Execute(file, p); err != nil {
		_ = file.Close()
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

var pomTemplate = template.Must(template.New("pom").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
	<modelVersion>4.0.0</modelVersion>
	<parent>
		<groupId>org.springframework.boot</groupId>
		<artifactId>spring-boot-starter-parent</artifactId>
		<version>{{.BootVersion}}</version>
	</parent>
	<groupId>{{.Group}}</groupId>
	<artifactId>{{.Artifact}}</artifactId>
	<version>{{.Version}}</version>
	<packaging>{{.Packaging}}</packaging>
	<name>{{.Name}}</name>
	<description>{{.Description}}</description>
	<properties>
		<java.version>{{.JavaVersion}}</java.version>
	</properties>
	<dependencies>
{{- range .Dependencies}}
		<dependency>
			<groupId>org.springframework.boot</groupId>
			<artifactId>{{.}}</artifactId>
		</dependency>
{{- end}}
	</dependencies>
</project>
`))

var gradleTemplate = template.Must(template.New("gradle").Parse(`plugins {
	id 'org.springframework.boot' version '{{.BootVersion}}'
	id '{{.Language}}'
}

group = '{{.Group}}'
version = '{{.Version}}'
description = '{{.Description}}'
sourceCompatibility = '{{.JavaVersion}}'

dependencies {
{{- range .Dependencies}}
	implementation '{{.}}'
{{- end}}
}
`))

var settingsTemplate = template.Must(template.New("settings").Parse(`rootProject.name = '{{.Artifact}}'
`))

var applicationTemplate = template.Must(template.New("application").Parse(`package {{.PackageName}}

@SpringBootApplication
class {{.ApplicationClass}} {
}
`))
