package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t0\t0\t100\t10\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t96.5\tNome:\n" +
	"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t91.0\tJOAO\n" +
	"5\t1\t1\t1\t1\t3\t0\t0\t10\t10\t12.0\t~~\n" +
	"5\t1\t1\t1\t2\t1\t0\t0\t10\t10\t88.5\tCPF:\n" +
	"5\t1\t1\t1\t2\t2\t0\t0\t10\t10\t30.0\t111\n"

type fakeRunner struct {
	calls  []Command
	stdout []byte
	err    error
	onRun  func(args []string)
}

func (f *fakeRunner) Run(_ context.Context, c Command) ([]byte, error) {
	f.calls = append(f.calls, c)
	if f.onRun != nil {
		f.onRun(c.Args)
	}
	if f.err != nil {
		return nil, &ExecError{Stage: c.Stage, Bin: c.Bin, ExitCode: 1, Stderr: "stderr output", Err: f.err}
	}
	return f.stdout, nil
}

type fakeEngine struct {
	pages []PageText
	err   error
	calls int
}

func (f *fakeEngine) Recognize(context.Context, image.Image) (PageText, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return PageText{}, f.err
	}
	return f.pages[f.calls%len(f.pages)], nil
}

type fakeRasterizer struct {
	pages int
	err   error
}

func (f fakeRasterizer) Rasterize(context.Context, []byte) ([]image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]image.Image, f.pages)
	for i := range out {
		out[i] = testImage()
	}
	return out, nil
}

func testImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.SetGray(x, x, color.Gray{Y: 255})
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, testImage(), imaging.PNG))
	return buf.Bytes()
}

func TestParseTSV(t *testing.T) {
	pt := parseTSV(sampleTSV, 30)

	assert.Equal(t, "Nome: JOAO\nCPF:", pt.Text)
	assert.Equal(t, 3, pt.Words)
	assert.InDelta(t, (96.5+91.0+88.5)/3, pt.Confidence, 0.0001)
}

func TestParseTSVEmpty(t *testing.T) {
	pt := parseTSV("level\tpage_num\n", 30)
	assert.Equal(t, "", pt.Text)
	assert.Zero(t, pt.Confidence)
}

func TestTesseractEngineArgs(t *testing.T) {
	r := &fakeRunner{stdout: []byte(sampleTSV)}
	eng := NewTesseractEngine(Config{MinWordConfidence: 30, TessdataDir: "/td"}, r, nil)

	pt, err := eng.Recognize(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, 3, pt.Words)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "recognize", r.calls[0].Stage)
	args := r.calls[0].String()
	assert.True(t, strings.HasPrefix(args, "tesseract "))
	assert.Contains(t, args, "stdout -l por+eng --oem 3 --psm 6 --tessdata-dir /td tsv")
}

func TestTesseractEngineError(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1")}
	_, err := NewTesseractEngine(Config{}, r, nil).Recognize(context.Background(), testImage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recognize: tesseract")
	assert.Contains(t, err.Error(), "stderr output")
	var xe *ExecError
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, 1, xe.ExitCode)
}

func TestExtractImage(t *testing.T) {
	eng := &fakeEngine{pages: []PageText{{Text: "Nome: ANA\nLíquido: 100,00", Confidence: 80, Words: 4}}}
	e := NewExtractor(Config{Preprocess: true}, nil, WithEngine(eng))

	res, err := e.Extract(context.Background(), "slip.PNG", pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "IMAGE", res.SourceType)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "Nome: ANA\nLíquido: 100,00", res.Text)
	assert.InDelta(t, 80, res.Confidence, 0.001)
}

func TestExtractImageEngineFailure(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithEngine(&fakeEngine{err: errors.New("boom")}))
	_, err := e.Extract(context.Background(), "slip.jpg", pngBytes(t))
	require.Error(t, err)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := NewExtractor(Config{}, nil).Extract(context.Background(), "slip.docx", []byte("x"))
	require.Error(t, err)
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	eng := &fakeEngine{pages: []PageText{
		{Text: "Nome: ANA", Confidence: 90, Words: 2},
		{Text: "", Confidence: 0, Words: 0},
		{Text: "Líquido: 100,00", Confidence: 70, Words: 2},
	}}
	e := NewExtractor(Config{}, nil, WithEngine(eng), WithRasterizer(fakeRasterizer{pages: 3}))

	res, err := e.Extract(context.Background(), "scan.pdf", []byte("not a real pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 3, res.Pages)
	assert.InDelta(t, 80, res.Confidence, 0.001)
	assert.Contains(t, res.Text, "Nome: ANA")
	assert.Contains(t, res.Text, "\f")
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractPDFRasterizerError(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithEngine(&fakeEngine{}), WithRasterizer(fakeRasterizer{err: errors.New("no pages")}))
	_, err := e.Extract(context.Background(), "scan.pdf", []byte("garbage"))
	require.Error(t, err)
}

func TestPopplerRasterizer(t *testing.T) {
	png := pngBytes(t)
	r := &fakeRunner{}
	r.onRun = func(args []string) {
		prefix := args[len(args)-1]
		for _, name := range []string{"-10.png", "-2.png", "-1.png"} {
			require.NoError(t, writeFile(prefix+name, png))
		}
	}
	rast := NewPopplerRasterizer(Config{DPI: 150, MaxPages: 2}, r, nil)

	pages, err := rast.Rasterize(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, "rasterize", r.calls[0].Stage)
	args := r.calls[0].String()
	assert.Contains(t, args, "pdftoppm -r 150 -png -l 2")
}

func TestPopplerRasterizerNoPages(t *testing.T) {
	_, err := NewPopplerRasterizer(Config{}, &fakeRunner{}, nil).Rasterize(context.Background(), []byte("%PDF"))
	require.Error(t, err)
}

func TestSortByPageNumber(t *testing.T) {
	paths := []string{"/t/page-10.png", "/t/page-2.png", "/t/page-1.png", "/t/in_3_Im0.png"}
	sortByPageNumber(paths)
	assert.Equal(t, []string{"/t/page-1.png", "/t/page-2.png", "/t/in_3_Im0.png", "/t/page-10.png"}, paths)
}

func TestNormalize(t *testing.T) {
	in := "Nome:\t\tJOAO  DA SILVA   \r\n-----\r\n\n\n\nPeríodo: 03/2024\n"
	assert.Equal(t, "Nome: JOAO DA SILVA\n\nPeríodo: 03/2024", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestPayslipLikeness(t *testing.T) {
	slip := "Contracheque\nNome: JOAO DA SILVA CPF 111.444.777-35\nPeríodo 03/2024\n" +
		"Salário Bruto R$ 5.000,00\nTotal Líquido R$ 4.200,00\nDescontos R$ 800,00 referentes a INSS e IRRF"
	assert.GreaterOrEqual(t, payslipLikeness(slip), 0.6)
	assert.Less(t, payslipLikeness("lorem ipsum"), 0.6)
}
