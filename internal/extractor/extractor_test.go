package extractor_test

import (
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/dimobwriter"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/extractor"
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/internal/types"
)

// contractRow builds a 14-column detail row.
func contractRow(op, developer, buyer, name, number, complement, cep, value, date string) []string {
	row := make([]string, 14)
	row[0] = op
	row[1] = developer
	row[3] = buyer
	row[4] = name
	row[6] = number
	row[7] = complement
	row[8] = cep
	row[12] = value
	row[13] = date
	return row
}

var _ = Describe("Extract", func() {
	var grid types.Grid

	BeforeEach(func() {
		grid = types.Grid{
			{"DECLARACAO DIMOB"},
			{"", "", ""},
			{"11222333000181", "2024", "ACME LTDA", "ACME"},
			{"CNPJ", "ANO", "RAZAO SOCIAL"},
			contractRow("VENDA", "11222333000181", "99988877000", "João Silva", "12", "Apto 3", "01234-567", "500000,00", "2024-03-15"),
			{"   ", ""},
			contractRow("DISTRATO", "11222333000181", "12345678909", "Maria", "40", "", "", "1.000,00", ""),
		}
	})

	It("reads the header from the second non-blank row", func() {
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Header).To(Equal(types.CompanyHeader{
			CNPJ:         "11222333000181",
			CalendarYear: "2024",
			CompanyName:  "ACME LTDA",
			TradeName:    "ACME",
		}))
	})

	It("reads contracts in source order and skips blank rows", func() {
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Records).To(HaveLen(2))

		first := set.Records[0]
		Expect(first.OperationType).To(Equal("VENDA"))
		Expect(first.DeveloperDocument).To(Equal("11222333000181"))
		Expect(first.BuyerDocument).To(Equal("99988877000"))
		Expect(first.BuyerName).To(Equal("João Silva"))
		Expect(first.SaleValue).To(Equal("500000,00"))
		Expect(first.SaleDate).To(Equal("2024-03-15"))
		Expect(first.CalendarYear).To(Equal("2024"))
		Expect(first.SourceRow).To(Equal(4))

		second := set.Records[1]
		Expect(second.OperationType).To(Equal("DISTRATO"))
		Expect(second.BuyerName).To(Equal("Maria"))
		Expect(second.SourceRow).To(Equal(5))
	})

	It("synthesizes an alphanumeric contract number", func() {
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Records[0].ContractNumber).To(Equal("VENDA12Apto301234567"))
		Expect(set.Records[1].ContractNumber).To(Equal("DISTRATO40"))
	})

	It("drops punctuation and accented letters from contract number parts", func() {
		grid[4] = contractRow("VENDA", "", "", "", "12-B", "Sala nº 3 / Térreo", "01.234-567", "1", "")
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Records[0].ContractNumber).To(Equal("VENDA12BSalan3Trreo0"))
	})

	It("truncates contract numbers to 20 characters", func() {
		grid[4] = contractRow("VENDA", "", "", "", "123456789", "Bloco ABCDEFGH", "99999-999", "1", "")
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Records[0].ContractNumber).To(Equal("VENDA123456789BlocoA"))
		Expect(set.Records[0].ContractNumber).To(HaveLen(20))
	})

	It("defaults missing cells", func() {
		grid[4] = []string{"VENDA", "11222333000181"}
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		rec := set.Records[0]
		Expect(rec.BuyerDocument).To(BeEmpty())
		Expect(rec.BuyerName).To(BeEmpty())
		Expect(rec.SaleDate).To(BeEmpty())
		Expect(rec.SaleValue).To(Equal("0"))
	})

	It("treats boilerplate rows as skipped even when not blank", func() {
		grid = types.Grid{
			{"title"},
			{"11222333000181", "2024", "ACME LTDA"},
			{"captions"},
		}
		_, err := extractor.Extract(grid)
		Expect(err).To(HaveOccurred())

		grid = append(grid, contractRow("VENDA", "1", "2", "Ana", "", "", "", "10", ""))
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Records).To(HaveLen(1))
	})

	It("uses the clock when the calendar year is blank", func() {
		grid[2] = []string{"11222333000181", "  ", "ACME LTDA"}
		clock := func() time.Time { return time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC) }

		set, err := extractor.New(extractor.WithClock(clock)).Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Header.CalendarYear).To(Equal("2031"))
		for _, rec := range set.Records {
			Expect(rec.CalendarYear).To(Equal("2031"))
		}
	})

	It("tolerates blank but present header cells", func() {
		grid[2] = []string{"11222333000181", "2024", ""}
		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Header.CompanyName).To(BeEmpty())
		Expect(set.Header.TradeName).To(BeEmpty())
	})

	Context("when the grid cannot hold a declaration", func() {
		It("fails with fewer than four non-blank rows", func() {
			_, err := extractor.Extract(types.Grid{{"a"}, {}, {"b"}, {"", " "}, {"c"}})
			var extractionErr *extractor.ExtractionError
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(extractionErr.Row).To(Equal(-1))
		})

		It("fails on an empty grid", func() {
			_, err := extractor.Extract(nil)
			Expect(err).To(HaveOccurred())
		})

		It("fails when header columns are structurally absent", func() {
			grid[2] = []string{"11222333000181", "2024"}
			_, err := extractor.Extract(grid)
			var extractionErr *extractor.ExtractionError
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(extractionErr.Row).To(Equal(1))
			Expect(err.Error()).To(ContainSubstring("header row"))
		})
	})

	It("honours a custom layout", func() {
		layout := extractor.DefaultLayout()
		layout.HeaderRow = 0
		layout.DataStartRow = 1
		layout.BuyerNameColumn = 2
		layout.ContractNumberColumns = []int{1}

		set, err := extractor.New(extractor.WithLayout(layout)).Extract(types.Grid{
			{"11222333000181", "2024", "ACME"},
			{"VENDA", "C-77", "Ana"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Header.CompanyName).To(Equal("ACME"))
		Expect(set.Records).To(HaveLen(1))
		Expect(set.Records[0].BuyerName).To(Equal("Ana"))
		Expect(set.Records[0].ContractNumber).To(Equal("C77"))
	})
})

var _ = Describe("Extract and encode", func() {
	It("turns a minimal spreadsheet into a three line document", func() {
		grid := types.Grid{
			{"DIMOB 2024"},
			{},
			{"11222333000181", "2024", "ACME LTDA", "ACME"},
			{"OPERACAO", "CNPJ", "", "CPF", "NOME"},
			contractRow("VENDA", "11222333000181", "99988877000", "João Silva", "", "", "", "500000,00", "2024-03-15"),
		}

		set, err := extractor.Extract(grid)
		Expect(err).NotTo(HaveOccurred())

		doc, err := dimobwriter.Encode(&set.Header, set.Records)
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSuffix(doc, "\r\n"), "\r\n")
		Expect(lines).To(HaveLen(3))

		Expect(lines[0]).To(HavePrefix("R01" + "11222333000181" + "ACME LTDA "))
		Expect(lines[0]).To(HaveLen(100))
		Expect(lines[1]).To(HavePrefix("R02" + "2024"))
		Expect(lines[1]).To(HaveLen(100))

		ir := lines[2]
		Expect(ir).To(HaveLen(116))
		Expect(ir[:2]).To(Equal("IR"))
		Expect(ir[34:74]).To(Equal(dimobwriter.PadRight("JOAO SILVA", 40, ' ')))
		Expect(ir[74:94]).To(Equal(dimobwriter.PadRight("VENDA", 20, ' ')))
		Expect(ir[94:102]).To(Equal("20240315"))
		Expect(ir[102:]).To(Equal("00000050000000"))
	})
})
