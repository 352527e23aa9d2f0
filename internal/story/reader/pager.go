package reader

import "sync"

const DefaultPageSize = 4

// Pager splits a story's paragraphs into fixed-size pages and follows the
// narrated paragraph. Manual paging never touches playback.
type Pager struct {
	mu         sync.Mutex
	paragraphs int
	pageSize   int
	current    int
}

func NewPager(paragraphs, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{paragraphs: paragraphs, pageSize: pageSize}
}

// Reset points the pager at a new story and returns to the first page.
func (p *Pager) Reset(paragraphs int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paragraphs = paragraphs
	p.current = 0
}

func (p *Pager) PageSize() int {
	return p.pageSize
}

// PageCount is ceil(paragraphs / pageSize).
func (p *Pager) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageCount()
}

func (p *Pager) pageCount() int {
	return (p.paragraphs + p.pageSize - 1) / p.pageSize
}

func (p *Pager) CurrentPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// OnActiveParagraphChanged turns to the page holding paragraph. It reports
// whether the page changed. story.NoParagraph leaves the page alone.
func (p *Pager) OnActiveParagraphChanged(paragraph int) bool {
	if paragraph < 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if paragraph >= p.paragraphs {
		return false
	}
	target := paragraph / p.pageSize
	if target == p.current {
		return false
	}
	p.current = target
	return true
}

func (p *Pager) NextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current >= p.pageCount()-1 {
		return false
	}
	p.current++
	return true
}

func (p *Pager) PrevPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == 0 {
		return false
	}
	p.current--
	return true
}

// Window returns the half-open paragraph range [start, end) on the current
// page.
func (p *Pager) Window() (start, end int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start = p.current * p.pageSize
	end = min(start+p.pageSize, p.paragraphs)
	return start, end
}
