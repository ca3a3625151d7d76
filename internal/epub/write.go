package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/beevik/etree"
)

const (
	mimetypeContent = "application/epub+zip"
	oebpsDir        = "OEBPS"
	opfPath         = oebpsDir + "/content.opf"
	containerPath   = "META-INF/container.xml"
)

// Build assembles book and returns the serialized EPUB.
func (a *Assembler) Build(book Book) ([]byte, error) {
	pkg, err := a.Assemble(book)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := pkg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the package as an OCF zip container: the stored mimetype
// entry first, then the container document and every manifest resource.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	if err := p.writeAll(zw); err != nil {
		_ = zw.Close()
		return cw.n, fmt.Errorf("%w: %v", ErrPackaging, err)
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("%w: %v", ErrPackaging, err)
	}
	return cw.n, nil
}

func (p *Package) writeAll(zw *zip.Writer) error {
	if err := writeMimetype(zw); err != nil {
		return fmt.Errorf("writing mimetype: %w", err)
	}
	if err := writeXMLToZip(zw, containerPath, containerDocument()); err != nil {
		return fmt.Errorf("writing container: %w", err)
	}
	if err := writeXMLToZip(zw, opfPath, p.opfDocument()); err != nil {
		return fmt.Errorf("writing package document: %w", err)
	}
	for _, r := range p.Manifest {
		name := path.Join(oebpsDir, r.Href)
		if r.Href == NCXHref {
			if err := writeXMLToZip(zw, name, p.ncxDocument()); err != nil {
				return fmt.Errorf("writing %s: %w", r.Href, err)
			}
			continue
		}
		if err := writeDataToZip(zw, name, r.Data); err != nil {
			return fmt.Errorf("writing %s: %w", r.Href, err)
		}
	}
	return nil
}

func writeMimetype(zw *zip.Writer) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, mimetypeContent)
	return err
}

func containerDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", "urn:oasis:names:tc:opendocument:xmlns:container")

	rootfile := container.CreateElement("rootfiles").CreateElement("rootfile")
	rootfile.CreateAttr("full-path", opfPath)
	rootfile.CreateAttr("media-type", "application/oebps-package+xml")
	return doc
}

func (p *Package) opfDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("unique-identifier", "BookId")
	pkg.CreateAttr("version", "2.0")

	metadata := pkg.CreateElement("metadata")
	metadata.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	metadata.CreateAttr("xmlns:opf", "http://www.idpf.org/2007/opf")

	metadata.CreateElement("dc:title").SetText(p.Metadata.Title)
	if p.Metadata.Creator != "" {
		creator := metadata.CreateElement("dc:creator")
		creator.CreateAttr("opf:role", "aut")
		creator.SetText(p.Metadata.Creator)
	}
	metadata.CreateElement("dc:language").SetText(p.Metadata.Language)
	id := metadata.CreateElement("dc:identifier")
	id.CreateAttr("id", "BookId")
	id.SetText(p.Metadata.Identifier)
	if p.Metadata.Date != "" {
		metadata.CreateElement("dc:date").SetText(p.Metadata.Date)
	}
	if p.Metadata.Publisher != "" {
		metadata.CreateElement("dc:publisher").SetText(p.Metadata.Publisher)
	}
	if p.CoverID != "" {
		meta := metadata.CreateElement("meta")
		meta.CreateAttr("name", "cover")
		meta.CreateAttr("content", p.CoverID)
	}

	manifest := pkg.CreateElement("manifest")
	for _, r := range p.Manifest {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", r.ID)
		item.CreateAttr("href", r.Href)
		item.CreateAttr("media-type", r.MediaType)
	}

	spine := pkg.CreateElement("spine")
	spine.CreateAttr("toc", "ncx")
	for _, idref := range p.Spine {
		spine.CreateElement("itemref").CreateAttr("idref", idref)
	}

	guide := pkg.CreateElement("guide")
	addReference(guide, "title-page", p.Metadata.Title, TitlePageHref)
	if _, ok := p.Resource(TOCPageHref); ok {
		addReference(guide, "toc", tocHeading, TOCPageHref)
	}

	doc.Indent(2)
	return doc
}

func addReference(guide *etree.Element, typ, title, href string) {
	ref := guide.CreateElement("reference")
	ref.CreateAttr("type", typ)
	ref.CreateAttr("title", title)
	ref.CreateAttr("href", href)
}

// ncxDocument lists the navigation entries. Without entries it points at
// the title page, since EPUB 2 readers require a non-empty navMap.
func (p *Package) ncxDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("xmlns", "http://www.daisy.org/z3986/2005/ncx/")
	ncx.CreateAttr("version", "2005-1")

	head := ncx.CreateElement("head")
	for _, m := range [][2]string{
		{"dtb:uid", p.Metadata.Identifier},
		{"dtb:depth", "1"},
		{"dtb:totalPageCount", "0"},
		{"dtb:maxPageNumber", "0"},
	} {
		meta := head.CreateElement("meta")
		meta.CreateAttr("name", m[0])
		meta.CreateAttr("content", m[1])
	}

	ncx.CreateElement("docTitle").CreateElement("text").SetText(p.Metadata.Title)
	if p.Metadata.Creator != "" {
		ncx.CreateElement("docAuthor").CreateElement("text").SetText(p.Metadata.Creator)
	}

	points := p.Nav
	if len(points) == 0 {
		points = []NavPoint{{Label: p.Metadata.Title, Href: TitlePageHref}}
	}

	navMap := ncx.CreateElement("navMap")
	for i, np := range points {
		order := strconv.Itoa(i + 1)
		navPoint := navMap.CreateElement("navPoint")
		navPoint.CreateAttr("id", "navpoint-"+order)
		navPoint.CreateAttr("playOrder", order)
		navPoint.CreateElement("navLabel").CreateElement("text").SetText(np.Label)
		navPoint.CreateElement("content").CreateAttr("src", np.Href)
	}

	doc.Indent(2)
	return doc
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
