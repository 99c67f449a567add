package graph

import "io"

// SliceRows returns Rows over an in-memory slice.
func SliceRows(rows []Row) Rows {
	return &sliceRows{rows: rows}
}

type sliceRows struct {
	rows []Row
	pos  int
}

func (r *sliceRows) Next() (Row, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *sliceRows) Close() error {
	r.pos = len(r.rows)
	return nil
}

// SliceNodes returns a NodeIterator over an in-memory slice. onClose, when
// not nil, runs once on Close.
func SliceNodes(nodes []Node, onClose func() error) NodeIterator {
	return &sliceNodes{nodes: nodes, onClose: onClose}
}

type sliceNodes struct {
	nodes   []Node
	pos     int
	onClose func() error
}

func (it *sliceNodes) Next() (Node, error) {
	if it.pos >= len(it.nodes) {
		return Node{}, io.EOF
	}
	n := it.nodes[it.pos]
	it.pos++
	return n, nil
}

func (it *sliceNodes) Close() error {
	it.pos = len(it.nodes)
	if it.onClose == nil {
		return nil
	}
	fn := it.onClose
	it.onClose = nil
	return fn()
}

// CollectNodes drains it and closes it.
func CollectNodes(it NodeIterator) ([]Node, error) {
	defer it.Close()
	var out []Node
	for {
		n, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, n)
	}
}
