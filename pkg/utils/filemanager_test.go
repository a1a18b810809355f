package utils_test

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/pkg/utils"
)

func touch(path, content string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
}

var _ = Describe("FileManager", func() {
	var (
		root string
		fm   *utils.FileManager
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		fm = utils.NewFileManager(
			filepath.Join(root, "input"),
			filepath.Join(root, "output"),
			filepath.Join(root, "input_archive"),
			filepath.Join(root, "output_archive"),
		)
		Expect(os.MkdirAll(fm.InputDir, 0755)).To(Succeed())
		Expect(os.MkdirAll(fm.OutputDir, 0755)).To(Succeed())
	})

	Describe("DiscoverInputFiles", func() {
		BeforeEach(func() {
			touch(filepath.Join(fm.InputDir, "b.xlsx"), "")
			touch(filepath.Join(fm.InputDir, "a.CSV"), "")
			touch(filepath.Join(fm.InputDir, "c.xls"), "")
			touch(filepath.Join(fm.InputDir, "notes.pdf"), "")
			touch(filepath.Join(fm.InputDir, ".hidden.csv"), "")
			touch(filepath.Join(fm.InputDir, "nested", "d.csv"), "")
		})

		It("lists supported files sorted by name", func() {
			files, err := fm.DiscoverInputFiles()
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(Equal([]string{
				filepath.Join(fm.InputDir, "a.CSV"),
				filepath.Join(fm.InputDir, "b.xlsx"),
				filepath.Join(fm.InputDir, "c.xls"),
			}))
		})

		It("filters by the given extensions", func() {
			files, err := fm.DiscoverInputFiles(".xlsx")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(ConsistOf(filepath.Join(fm.InputDir, "b.xlsx")))
		})

		It("fails for a missing directory", func() {
			fm.InputDir = filepath.Join(root, "missing")
			_, err := fm.DiscoverInputFiles()
			Expect(err).To(MatchError(ContainSubstring("failed to scan input directory")))
		})
	})

	Describe("CreateOutputFile", func() {
		It("adds a numeric suffix when the name is taken", func() {
			f1, p1, err := fm.CreateOutputFile("DIMOB.txt")
			Expect(err).NotTo(HaveOccurred())
			f1.Close()
			f2, p2, err := fm.CreateOutputFile("DIMOB.txt")
			Expect(err).NotTo(HaveOccurred())
			f2.Close()

			Expect(p1).To(Equal(filepath.Join(fm.OutputDir, "DIMOB.txt")))
			Expect(p2).To(Equal(filepath.Join(fm.OutputDir, "DIMOB_2.txt")))
		})

		It("hands out distinct files to concurrent callers", func() {
			const workers = 8
			paths := make([]string, workers)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					f, p, err := fm.CreateOutputFile("DIMOB.txt")
					Expect(err).NotTo(HaveOccurred())
					f.Close()
					paths[i] = p
				}(i)
			}
			wg.Wait()

			seen := map[string]bool{}
			for _, p := range paths {
				seen[p] = true
			}
			Expect(seen).To(HaveLen(workers))
		})
	})

	Describe("archiving", func() {
		It("moves the input into the archive", func() {
			input := filepath.Join(fm.InputDir, "data.csv")
			touch(input, "content")

			archived, err := fm.ArchiveInputFile(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(archived).To(Equal(filepath.Join(fm.InputArchiveDir, "data.csv")))
			Expect(input).NotTo(BeAnExistingFile())
			Expect(os.ReadFile(archived)).To(Equal([]byte("content")))
		})

		It("does not overwrite an earlier archive of the same name", func() {
			input := filepath.Join(fm.InputDir, "data.csv")
			touch(input, "first")
			_, err := fm.ArchiveInputFile(input)
			Expect(err).NotTo(HaveOccurred())

			touch(input, "second")
			archived, err := fm.ArchiveInputFile(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(archived).To(Equal(filepath.Join(fm.InputArchiveDir, "data_2.csv")))
			Expect(os.ReadFile(filepath.Join(fm.InputArchiveDir, "data.csv"))).To(Equal([]byte("first")))
		})

		It("uses date subdirectories when enabled", func() {
			fm.UseTimestampSubdirs = true
			input := filepath.Join(fm.InputDir, "data.csv")
			touch(input, "x")

			archived, err := fm.ArchiveInputFile(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.ToSlash(archived)).To(MatchRegexp(`input_archive/\d{4}/\d{2}/\d{2}/data\.csv$`))
		})

		It("copies the output into the archive", func() {
			output := filepath.Join(fm.OutputDir, "DIMOB.txt")
			touch(output, "R01")

			archived, err := fm.ArchiveOutputFile(output)
			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(BeAnExistingFile())
			Expect(os.ReadFile(archived)).To(Equal([]byte("R01")))
		})

		It("skips output archiving when disabled", func() {
			fm.OutputArchiveDir = ""
			archived, err := fm.ArchiveOutputFile(filepath.Join(fm.OutputDir, "DIMOB.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(archived).To(BeEmpty())
		})
	})
})

var _ = Describe("GenerateOutputFileName", func() {
	now := time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

	DescribeTable("expands placeholders",
		func(format string, expected string) {
			Expect(utils.GenerateOutputFileName(format, now, map[string]string{"original": "obra"})).To(Equal(expected))
		},
		Entry("default format", "DIMOB_{timestamp}.txt", "DIMOB_20240115143022.txt"),
		Entry("date and time", "{date}-{time}.txt", "20240115-143022.txt"),
		Entry("original name", "{original}_DIMOB.txt", "obra_DIMOB.txt"),
		Entry("missing extension", "DIMOB_{date}", "DIMOB_20240115.txt"),
		Entry("other extension kept", "DIMOB.dec", "DIMOB.dec"),
	)

	It("inserts a UUID", func() {
		name := utils.GenerateOutputFileName("DIMOB_{uuid}", now, nil)
		Expect(name).To(MatchRegexp(`^DIMOB_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.txt$`))
	})
})

var _ = Describe("WriteSummaryLog", func() {
	summary := utils.ProcessingSummary{
		StartTime:       time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2024, 1, 15, 14, 0, 5, 0, time.UTC),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalRecords:    3,
		ProcessedFiles: []utils.ProcessedFileInfo{{
			InputFile:  "input/a.csv",
			OutputFile: "output/DIMOB_20240115140000.txt",
			Records:    3,
		}},
		FailedFilesList: []utils.FailedFileInfo{{
			InputFile:    "input/b.xls",
			ErrorMessage: "unsupported input format",
		}},
	}

	It("renders the statistics and each file", func() {
		text := utils.FormatSummary(summary)
		Expect(text).To(ContainSubstring("Duration:       5s"))
		Expect(text).To(MatchRegexp(`Contract Records:\s+3`))
		Expect(text).To(ContainSubstring("Output:       output/DIMOB_20240115140000.txt"))
		Expect(text).To(ContainSubstring("Error: unsupported input format"))
	})

	It("appends to the log across runs", func() {
		path := filepath.Join(GinkgoT().TempDir(), "logs", "summary.log")
		Expect(utils.WriteSummaryLog(summary, path)).To(Succeed())
		Expect(utils.WriteSummaryLog(summary, path)).To(Succeed())

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(regexp.MustCompile("End of Summary").FindAllIndex(content, -1)).To(HaveLen(2))
	})
})

var _ = Describe("CleanOldArchives", func() {
	It("removes only files older than the cutoff", func() {
		dir := GinkgoT().TempDir()
		old := filepath.Join(dir, "2023", "old.csv")
		fresh := filepath.Join(dir, "fresh.csv")
		touch(old, "")
		touch(fresh, "")
		past := time.Now().Add(-48 * time.Hour)
		Expect(os.Chtimes(old, past, past)).To(Succeed())

		removed, err := utils.CleanOldArchives(dir, 24*time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(Equal(1))
		Expect(old).NotTo(BeAnExistingFile())
		Expect(fresh).To(BeAnExistingFile())
		Expect(utils.FileExists(fresh)).To(BeTrue())
	})
})
