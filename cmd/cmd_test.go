package cmd_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/cmd"
)

const validCSV = "DECLARACAO DIMOB\n" +
	"11222333000181,2024,ACME LTDA\n" +
	"CNPJ,ANO,RAZAO\n" +
	"VENDA,11222333000181,,12345678909,Maria,,7,,,,,,1000,2024-03-15\n"

const invalidCSV = "DECLARACAO DIMOB\n" +
	"11222333000181,2024,ACME LTDA\n" +
	"CNPJ,ANO,RAZAO\n" +
	"VENDA,11222333000181,,99988877000,Maria,,7,,,,,,1000,2024-03-15\n"

type workspace struct {
	root       string
	configPath string
}

func (w workspace) dir(name string) string {
	return filepath.Join(w.root, name)
}

func (w workspace) input(name, content string) string {
	path := filepath.Join(w.dir("input"), name)
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	return path
}

func newWorkspace() workspace {
	root := GinkgoT().TempDir()
	w := workspace{root: root, configPath: filepath.Join(root, "config.yaml")}

	yaml := fmt.Sprintf(`input_dir: %q
output_dir: %q
input_archive_dir: %q
summary_log: %q
log_level: error
max_concurrency: 2
`, w.dir("input"), w.dir("output"), w.dir("input_archive"), filepath.Join(root, "logs", "summary.log"))
	Expect(os.WriteFile(w.configPath, []byte(yaml), 0644)).To(Succeed())
	Expect(os.MkdirAll(w.dir("input"), 0755)).To(Succeed())
	return w
}

func run(w workspace, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	args = append(args, "--config", w.configPath)
	err := cmd.Run(args, &stdout, &stderr)
	return stdout.String(), err
}

var _ = Describe("dimob convert", func() {
	var w workspace

	BeforeEach(func() {
		w = newWorkspace()
	})

	It("writes the declaration to stdout", func() {
		input := w.input("vendas.csv", validCSV)

		out, err := run(w, "convert", input, "-o", "-")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("R0111222333000181ACME LTDA"))
		Expect(strings.Count(out, "\r\n")).To(Equal(3))
		Expect(input).To(BeAnExistingFile())
	})

	It("writes to an explicit path", func() {
		input := w.input("vendas.csv", validCSV)
		target := filepath.Join(w.root, "DIMOB.txt")

		out, err := run(w, "convert", input, "-o", target)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("vendas.csv -> " + target + " (1 contract(s))"))
		Expect(target).To(BeAnExistingFile())
	})

	It("generates a name in the output directory", func() {
		input := w.input("vendas.csv", validCSV)

		_, err := run(w, "convert", input)
		Expect(err).NotTo(HaveOccurred())

		entries, err := os.ReadDir(w.dir("output"))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(MatchRegexp(`^DIMOB_\d{14}\.txt$`))
		Expect(input).To(BeAnExistingFile())
	})

	It("fails for a missing file", func() {
		_, err := run(w, "convert", filepath.Join(w.root, "missing.csv"), "-o", "-")
		Expect(err).To(MatchError(ContainSubstring("input file not found")))
	})
})

var _ = Describe("dimob process", func() {
	var w workspace

	BeforeEach(func() {
		w = newWorkspace()
	})

	It("converts every input and archives it", func() {
		w.input("a.csv", validCSV)
		w.input("b.csv", validCSV)

		out, err := run(w, "process")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Found 2 file(s) to process"))
		Expect(out).To(MatchRegexp(`Successful:\s+2`))

		outputs, err := os.ReadDir(w.dir("output"))
		Expect(err).NotTo(HaveOccurred())
		Expect(outputs).To(HaveLen(2))
		Expect(filepath.Join(w.dir("input_archive"), "a.csv")).To(BeAnExistingFile())
		Expect(filepath.Join(w.root, "logs", "summary.log")).To(BeAnExistingFile())
	})

	It("reports failures and keeps going", func() {
		w.input("good.csv", validCSV)
		w.input("short.csv", "a\nb\n")

		out, err := run(w, "process")
		Expect(err).To(MatchError("1 of 2 file(s) failed"))
		Expect(out).To(ContainSubstring("✓ good.csv"))
		Expect(out).To(ContainSubstring("✗ short.csv"))
		Expect(filepath.Join(w.dir("input"), "short.csv")).To(BeAnExistingFile())
	})

	It("leaves inputs in place with --keep-input", func() {
		input := w.input("a.csv", validCSV)

		_, err := run(w, "process", "--keep-input")
		Expect(err).NotTo(HaveOccurred())
		Expect(input).To(BeAnExistingFile())
	})

	It("does nothing for an empty input directory", func() {
		out, err := run(w, "process")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No input files found"))
	})
})

var _ = Describe("dimob validate", func() {
	var w workspace

	BeforeEach(func() {
		w = newWorkspace()
	})

	It("accepts a clean file", func() {
		out, err := run(w, "validate", w.input("ok.csv", validCSV))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No validation errors."))
		Expect(out).To(ContainSubstring("1 contract(s), 0 error(s), 0 warning(s)"))
	})

	It("lists findings and writes a report", func() {
		report := filepath.Join(w.root, "report.txt")

		out, err := run(w, "validate", w.input("bad.csv", invalidCSV), "--report", report)
		Expect(err).To(MatchError(ContainSubstring("is not valid")))
		Expect(out).To(ContainSubstring("Row 4, Field 'buyer_document'"))

		content, err := os.ReadFile(report)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("Validation report for"))
	})
})

var _ = Describe("dimob version", func() {
	It("prints the version and the toolchain", func() {
		out, err := run(newWorkspace(), "version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("dimob "))
		Expect(out).To(ContainSubstring("go:      " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH))
	})

	It("prints only the version with --short", func() {
		out, err := run(newWorkspace(), "version", "--short")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(out, "\n")).To(Equal(1))
		Expect(strings.TrimSpace(out)).NotTo(BeEmpty())
		Expect(out).NotTo(ContainSubstring("go:"))
	})

	It("does not need a readable config file", func() {
		var stdout bytes.Buffer
		err := cmd.Run([]string{"version", "--short", "--config", filepath.Join(GinkgoT().TempDir(), "missing.yaml")}, &stdout, &stdout)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).NotTo(BeEmpty())
	})
})

var _ = Describe("Run", func() {
	It("starts every invocation from the flag defaults", func() {
		w := newWorkspace()
		input := w.input("a.csv", validCSV)

		_, err := run(w, "process", "--keep-input")
		Expect(err).NotTo(HaveOccurred())
		Expect(input).To(BeAnExistingFile())

		_, err = run(w, "process")
		Expect(err).NotTo(HaveOccurred())
		Expect(input).NotTo(BeAnExistingFile())
		Expect(filepath.Join(w.dir("input_archive"), "a.csv")).To(BeAnExistingFile())
	})

	It("does not carry an output path into the next convert", func() {
		w := newWorkspace()
		input := w.input("a.csv", validCSV)

		out, err := run(w, "convert", input, "-o", "-")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("R01"))

		out, err = run(w, "convert", input)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(filepath.Join(w.dir("output"), "DIMOB_")))
	})
})
