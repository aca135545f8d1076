// Package btree walks the B-trees that index group members and chunks.
//
// Version 1 trees ("TREE") index the members of old-style groups, through
// symbol table nodes whose names sit in a local heap, and the chunks of
// datasets written with a version 3 layout message. Version 2 trees
// ("BTHD") of record type 10 or 11 index chunks of datasets written with
// a version 4 layout. Both readers return chunks in key order.
package btree
