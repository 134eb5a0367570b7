/*Package interval implements interval-union operations in a manner optimized
  for sets of genomic coordinates, such as the query/reference footprints
  covered by a chain of anchors.
  (Note the 'union'.  Overlapping intervals are merged, not tracked
  separately; it is currently necessary to use another package when that is not
  the desired behavior.)
  It assumes every position fits in a PosType, which is currently defined as
  int32.
*/
package interval
