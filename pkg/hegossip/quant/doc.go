// Package quant maps real-valued measurements and fusion weights to
// fixed-point integers and back.
//
// A measurement v quantized at precision p becomes round(v·2^p). Every
// consensus round multiplies the running value by integer weights that sum to
// the weight factor W, so after R rounds the integer carries a scale of
// 2^p·W^R. Unquantize divides that compound scale out exactly.
package quant
