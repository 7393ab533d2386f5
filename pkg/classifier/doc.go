/*
Package classifier assigns a network type (datacenter, residential, mobile
or unknown) and, when recognizable, an operating provider to a parsed
proxy record.

The heuristic is an ordered decision list over two immutable pattern
tables, evaluated top to bottom; the first matching tier wins and the tier
determines the confidence score:

 1. Provider signature matched and a provider-specific type sub-pattern
    matched: confidence 0.9.
 2. Provider signature matched, type from the generic keyword patterns:
    confidence 0.7.
 3. No provider, type from the generic keyword patterns: confidence 0.5.
 4. Port-based fallback (common datacenter and residential gateway ports):
    confidence 0.3.
 5. Nothing matched: type unknown.

Classification is a pure function; the tables are built once at package
init and never mutated.
*/
package classifier
