package sax

// SAX is a ContentHandler/DTDHandler/LexicalHandler/DeclHandler/
// EntityResolver/ErrorHandler implementation backed by optional
// function fields (sax.New(), then set only the *Handler fields of
// interest). Any field left nil is treated as "not interested" and
// its event is silently dropped.
type SAX struct {
	SetDocumentLocatorHandler  func(ctx Context, loc DocumentLocator) error
	StartDocumentHandler       func(ctx Context) error
	EndDocumentHandler         func(ctx Context) error
	StartPrefixMappingHandler  func(ctx Context, prefix, uri string) error
	EndPrefixMappingHandler    func(ctx Context, prefix string) error
	StartElementHandler        func(ctx Context, elem ParsedElement) error
	EndElementHandler          func(ctx Context, elem ParsedElement) error
	CharactersHandler          func(ctx Context, text []byte) error
	IgnorableWhitespaceHandler func(ctx Context, text []byte) error
	ProcessingInstructionHandler func(ctx Context, target, data string) error
	SkippedEntityHandler       func(ctx Context, name string) error

	NotationDeclHandler       func(ctx Context, name, publicID, systemID string) error
	UnparsedEntityDeclHandler func(ctx Context, name, publicID, systemID, notationName string) error

	CommentHandler    func(ctx Context, text []byte) error
	StartCDATAHandler func(ctx Context) error
	EndCDATAHandler   func(ctx Context) error
	StartDTDHandler   func(ctx Context, name, publicID, systemID string) error
	EndDTDHandler     func(ctx Context) error
	StartEntityHandler func(ctx Context, name string) error
	EndEntityHandler   func(ctx Context, name string) error

	ElementDeclHandler         func(ctx Context, name, model string) error
	AttributeDeclHandler       func(ctx Context, eName, aName, typ, mode, value string) error
	InternalEntityDeclHandler  func(ctx Context, name, value string) error
	ExternalEntityDeclHandler  func(ctx Context, name, publicID, systemID string) error

	ResolveEntityHandler func(ctx Context, publicID, systemID string) (InputSource, error)

	WarningHandler func(ctx Context, err error)
	ErrorHandler_  func(ctx Context, err error)
	FatalHandler   func(ctx Context, err error)
}

// New returns an empty SAX with every handler unset.
func New() *SAX {
	return &SAX{}
}

func (s *SAX) SetDocumentLocator(ctx Context, loc DocumentLocator) error {
	if s.SetDocumentLocatorHandler != nil {
		return s.SetDocumentLocatorHandler(ctx, loc)
	}
	return nil
}

func (s *SAX) StartDocument(ctx Context) error {
	if s.StartDocumentHandler != nil {
		return s.StartDocumentHandler(ctx)
	}
	return nil
}

func (s *SAX) EndDocument(ctx Context) error {
	if s.EndDocumentHandler != nil {
		return s.EndDocumentHandler(ctx)
	}
	return nil
}

func (s *SAX) StartPrefixMapping(ctx Context, prefix, uri string) error {
	if s.StartPrefixMappingHandler != nil {
		return s.StartPrefixMappingHandler(ctx, prefix, uri)
	}
	return nil
}

func (s *SAX) EndPrefixMapping(ctx Context, prefix string) error {
	if s.EndPrefixMappingHandler != nil {
		return s.EndPrefixMappingHandler(ctx, prefix)
	}
	return nil
}

func (s *SAX) StartElement(ctx Context, elem ParsedElement) error {
	if s.StartElementHandler != nil {
		return s.StartElementHandler(ctx, elem)
	}
	return nil
}

func (s *SAX) EndElement(ctx Context, elem ParsedElement) error {
	if s.EndElementHandler != nil {
		return s.EndElementHandler(ctx, elem)
	}
	return nil
}

func (s *SAX) Characters(ctx Context, text []byte) error {
	if s.CharactersHandler != nil {
		return s.CharactersHandler(ctx, text)
	}
	return nil
}

func (s *SAX) IgnorableWhitespace(ctx Context, text []byte) error {
	if s.IgnorableWhitespaceHandler != nil {
		return s.IgnorableWhitespaceHandler(ctx, text)
	}
	return nil
}

func (s *SAX) ProcessingInstruction(ctx Context, target, data string) error {
	if s.ProcessingInstructionHandler != nil {
		return s.ProcessingInstructionHandler(ctx, target, data)
	}
	return nil
}

func (s *SAX) SkippedEntity(ctx Context, name string) error {
	if s.SkippedEntityHandler != nil {
		return s.SkippedEntityHandler(ctx, name)
	}
	return nil
}

func (s *SAX) NotationDecl(ctx Context, name, publicID, systemID string) error {
	if s.NotationDeclHandler != nil {
		return s.NotationDeclHandler(ctx, name, publicID, systemID)
	}
	return nil
}

func (s *SAX) UnparsedEntityDecl(ctx Context, name, publicID, systemID, notationName string) error {
	if s.UnparsedEntityDeclHandler != nil {
		return s.UnparsedEntityDeclHandler(ctx, name, publicID, systemID, notationName)
	}
	return nil
}

func (s *SAX) Comment(ctx Context, text []byte) error {
	if s.CommentHandler != nil {
		return s.CommentHandler(ctx, text)
	}
	return nil
}

func (s *SAX) StartCDATA(ctx Context) error {
	if s.StartCDATAHandler != nil {
		return s.StartCDATAHandler(ctx)
	}
	return nil
}

func (s *SAX) EndCDATA(ctx Context) error {
	if s.EndCDATAHandler != nil {
		return s.EndCDATAHandler(ctx)
	}
	return nil
}

func (s *SAX) StartDTD(ctx Context, name, publicID, systemID string) error {
	if s.StartDTDHandler != nil {
		return s.StartDTDHandler(ctx, name, publicID, systemID)
	}
	return nil
}

func (s *SAX) EndDTD(ctx Context) error {
	if s.EndDTDHandler != nil {
		return s.EndDTDHandler(ctx)
	}
	return nil
}

func (s *SAX) StartEntity(ctx Context, name string) error {
	if s.StartEntityHandler != nil {
		return s.StartEntityHandler(ctx, name)
	}
	return nil
}

func (s *SAX) EndEntity(ctx Context, name string) error {
	if s.EndEntityHandler != nil {
		return s.EndEntityHandler(ctx, name)
	}
	return nil
}

func (s *SAX) ElementDecl(ctx Context, name, model string) error {
	if s.ElementDeclHandler != nil {
		return s.ElementDeclHandler(ctx, name, model)
	}
	return nil
}

func (s *SAX) AttributeDecl(ctx Context, eName, aName, typ, mode, value string) error {
	if s.AttributeDeclHandler != nil {
		return s.AttributeDeclHandler(ctx, eName, aName, typ, mode, value)
	}
	return nil
}

func (s *SAX) InternalEntityDecl(ctx Context, name, value string) error {
	if s.InternalEntityDeclHandler != nil {
		return s.InternalEntityDeclHandler(ctx, name, value)
	}
	return nil
}

func (s *SAX) ExternalEntityDecl(ctx Context, name, publicID, systemID string) error {
	if s.ExternalEntityDeclHandler != nil {
		return s.ExternalEntityDeclHandler(ctx, name, publicID, systemID)
	}
	return nil
}

func (s *SAX) ResolveEntity(ctx Context, publicID, systemID string) (InputSource, error) {
	if s.ResolveEntityHandler != nil {
		return s.ResolveEntityHandler(ctx, publicID, systemID)
	}
	return nil, nil
}

func (s *SAX) Warning(ctx Context, err error) {
	if s.WarningHandler != nil {
		s.WarningHandler(ctx, err)
	}
}

func (s *SAX) Error(ctx Context, err error) {
	if s.ErrorHandler_ != nil {
		s.ErrorHandler_(ctx, err)
	}
}

func (s *SAX) Fatal(ctx Context, err error) {
	if s.FatalHandler != nil {
		s.FatalHandler(ctx, err)
	}
}
