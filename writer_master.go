package godeck

import "fmt"

// Every slide uses one blank layout on one master; the master carries no
// placeholders, so all visible content comes from the slides themselves.

const emptySpTree = `    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr>
        <a:xfrm>
          <a:off x="0" y="0"/>
          <a:ext cx="0" cy="0"/>
          <a:chOff x="0" y="0"/>
          <a:chExt cx="0" cy="0"/>
        </a:xfrm>
      </p:grpSpPr>
    </p:spTree>
`

func slideMasterPart() Part {
	content := fmt.Sprintf(xmlDecl+`<p:sldMaster xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">
  <p:cSld>
    <p:bg>
      <p:bgRef idx="1001">
        <a:schemeClr val="bg1"/>
      </p:bgRef>
    </p:bg>
%s  </p:cSld>
  <p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
  <p:sldLayoutIdLst>
    <p:sldLayoutId id="%d" r:id="rId1"/>
  </p:sldLayoutIdLst>
  <p:txStyles>
    <p:titleStyle>
%s    </p:titleStyle>
    <p:bodyStyle>
%s    </p:bodyStyle>
    <p:otherStyle>
%s    </p:otherStyle>
  </p:txStyles>
</p:sldMaster>`, nsDrawingML, nsOfficeDocRels, nsPresentationML,
		emptySpTree, slideLayoutID,
		defaultLevelStyle("+mj-lt", 4400), defaultLevelStyle("+mn-lt", 1800), defaultLevelStyle("+mn-lt", 1800))

	return Part{
		Name:        partSlideMaster,
		ContentType: ctSlideMaster,
		Data:        []byte(content),
		Rels: []Relationship{
			{ID: "rId1", Type: relTypeSlideLayout, Target: "../slideLayouts/slideLayout1.xml"},
			{ID: "rId2", Type: relTypeTheme, Target: "../theme/theme1.xml"},
		},
	}
}

func defaultLevelStyle(typeface string, sz int) string {
	return fmt.Sprintf(`      <a:lvl1pPr>
        <a:defRPr sz="%d">
          <a:solidFill><a:schemeClr val="tx1"/></a:solidFill>
          <a:latin typeface="%s"/>
        </a:defRPr>
      </a:lvl1pPr>
`, sz, typeface)
}

func slideLayoutPart() Part {
	content := fmt.Sprintf(xmlDecl+`<p:sldLayout xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" type="blank" preserve="1">
  <p:cSld name="Blank">
%s  </p:cSld>
  <p:clrMapOvr>
    <a:masterClrMapping/>
  </p:clrMapOvr>
</p:sldLayout>`, nsDrawingML, nsOfficeDocRels, nsPresentationML, emptySpTree)

	return Part{
		Name:        partSlideLayout,
		ContentType: ctSlideLayout,
		Data:        []byte(content),
		Rels:        []Relationship{{ID: "rId1", Type: relTypeSlideMaster, Target: "../slideMasters/slideMaster1.xml"}},
	}
}

// schemeColors is the colour scheme of the theme part, in clrScheme order.
var schemeColors = []struct {
	slot string
	rgb  RGB
}{
	{"dk1", RGB{0, 0, 0}},
	{"lt1", RGB{255, 255, 255}},
	{"dk2", RGB{31, 41, 55}},
	{"lt2", RGB{243, 244, 246}},
	{"accent1", RGB{30, 58, 138}},
	{"accent2", RGB{59, 130, 246}},
	{"accent3", RGB{13, 148, 136}},
	{"accent4", RGB{16, 185, 129}},
	{"accent5", RGB{249, 115, 22}},
	{"accent6", RGB{239, 68, 68}},
	{"hlink", RGB{59, 130, 246}},
	{"folHlink", RGB{30, 58, 138}},
}

func (w *PPTXWriter) themePart() (Part, error) {
	var scheme string
	for _, c := range schemeColors {
		hex, err := c.rgb.Hex()
		if err != nil {
			return Part{}, &SerializationError{Part: partTheme, Err: err}
		}
		scheme += fmt.Sprintf("      <a:%s><a:srgbClr val=\"%s\"/></a:%s>\n", c.slot, hex, c.slot)
	}
	family := w.doc.Font
	if family == "" {
		family = defaultFamily
	}
	face := xmlEscape(family)

	const solid = `        <a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
`
	const line = `        <a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>
`
	const effect = `        <a:effectStyle><a:effectLst/></a:effectStyle>
`
	content := fmt.Sprintf(xmlDecl+`<a:theme xmlns:a="%s" name="GoDeck">
  <a:themeElements>
    <a:clrScheme name="GoDeck">
%s    </a:clrScheme>
    <a:fontScheme name="GoDeck">
      <a:majorFont><a:latin typeface="%s"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>
      <a:minorFont><a:latin typeface="%s"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>
    </a:fontScheme>
    <a:fmtScheme name="GoDeck">
      <a:fillStyleLst>
%s%s%s      </a:fillStyleLst>
      <a:lnStyleLst>
%s%s%s      </a:lnStyleLst>
      <a:effectStyleLst>
%s%s%s      </a:effectStyleLst>
      <a:bgFillStyleLst>
%s%s%s      </a:bgFillStyleLst>
    </a:fmtScheme>
  </a:themeElements>
</a:theme>`, nsDrawingML, scheme, face, face,
		solid, solid, solid,
		line, line, line,
		effect, effect, effect,
		solid, solid, solid)

	return Part{Name: partTheme, ContentType: ctTheme, Data: []byte(content)}, nil
}
