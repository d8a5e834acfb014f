/*

Package model provides the common parts of rating models.

	* Hyper-parameters management: Params, BaseModel
	* Evaluation: RMSE, MAE

The FunkSVD rating model lives in package model/svd.

*/
package model
