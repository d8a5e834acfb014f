/*

Package base provides base data structures and functions for funksvd.

The base data structures and functions include:

* Random Generator

* CSV Reading and Escaping

*/
package base
